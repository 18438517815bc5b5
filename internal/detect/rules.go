package detect

import (
	"regexp"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// Rule is a compiled detection rule with a minimum profile tier.
// A rule fires only when the active profile is at least as permissive
// of firings as MinProfile (strict fires everything).
type Rule struct {
	Code       model.ReasonCode
	Pattern    *regexp.Regexp
	MinProfile string
}

// minProfileByCode is the firing tier for each reason code. Language
// phrase rules inherit the tier of the code they emit; codes missing
// here default to strict.
var minProfileByCode = map[model.ReasonCode]string{
	model.ReasonRoleImpersonation:     ProfilePermissive,
	model.ReasonRoleHeader:            ProfileBalanced,
	model.ReasonPromptBoundary:        ProfileBalanced,
	model.ReasonInstructionOverride:   ProfilePermissive,
	model.ReasonInstructionHeader:     ProfileBalanced,
	model.ReasonResponseConstraint:    ProfileBalanced,
	model.ReasonStealthInstruction:    ProfilePermissive,
	model.ReasonProcessSabotage:       ProfilePermissive,
	model.ReasonCodeTamperingCoercion: ProfilePermissive,
	model.ReasonDataExfiltration:      ProfilePermissive,
	model.ReasonToolCallSerialized:    ProfileBalanced,
	model.ReasonPolicyBypass:          ProfileBalanced,
	model.ReasonDirectToolCall:        ProfileBalanced,
	model.ReasonSensitiveFileAccess:   ProfileBalanced,
	model.ReasonPersonaShift:          ProfileBalanced,
	model.ReasonObfuscationMarker:     ProfileStrict,
	model.ReasonCommandCoercion:       ProfileStrict,
	model.ReasonMultiStepInstruction:  ProfileStrict,
	model.ReasonShellExecution:        ProfileStrict,
}

// englishRules are the Class A regex rules, matched against sanitized
// text. Deterministic pattern matching, no ML. The vocabulary is part
// of the versioned policy; do not mutate at runtime.
var englishRules = []Rule{
	{
		Code: model.ReasonRoleImpersonation,
		Pattern: regexp.MustCompile(
			`(?i)\bpretend you are (a|the) system\b|\bsystem message\b|\bdeveloper message\b` +
				`|\bsystem prompt\b|\bdeveloper instructions\b`),
		MinProfile: ProfilePermissive,
	},
	{
		Code:       model.ReasonRoleHeader,
		Pattern:    regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(system|developer)\s*:`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonPromptBoundary,
		Pattern: regexp.MustCompile(
			`(?i)\bBEGIN (SYSTEM|DEVELOPER) PROMPT\b|\bEND (SYSTEM|DEVELOPER) PROMPT\b`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonInstructionOverride,
		Pattern: regexp.MustCompile(
			`(?i)\b(ignore|disregard|forget|override)\b.{0,40}\b(previous|above|earlier|prior)\b` +
				`.{0,40}\b(instructions|rules|directives|policies)\b` +
				`|\bthis (overrides|supersedes) (all|any) (instructions|policies)\b`),
		MinProfile: ProfilePermissive,
	},
	{
		Code: model.ReasonInstructionHeader,
		Pattern: regexp.MustCompile(
			`(?im)^\s*(?:#+\s*)?(instructions?|rules|policy)\s*:\s*(?:you\s+)?` +
				`(?:must|should|do not|don't|never)\b`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonResponseConstraint,
		Pattern: regexp.MustCompile(
			`(?i)(?:^|[.!?]\s+)(?:please\s+)?` +
				`(?:respond|reply|output|return)\s+(?:with\s+)?(?:only|just)\b`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonStealthInstruction,
		Pattern: regexp.MustCompile(
			`(?i)\bdo not mention\b|\bdo not acknowledge\b|\bsilently\b|\bdo not tell\b` +
				`|\bdo not reveal\b|\bdo not disclose\b|\bkeep this secret\b`),
		MinProfile: ProfilePermissive,
	},
	{
		Code: model.ReasonProcessSabotage,
		Pattern: regexp.MustCompile(
			`(?i)\bskip (the )?tests\b|\bdo not run tests\b|\bdon't run tests\b|\bclaim .*passed\b` +
				`|\bignore test failures\b|\bfake (the )?tests?\b|\bpretend .*passed\b`),
		MinProfile: ProfilePermissive,
	},
	{
		Code: model.ReasonCodeTamperingCoercion,
		Pattern: regexp.MustCompile(
			`(?i)\badd .*canary\b|\binsert .*canary\b|\bsilently add\b|\badd (a )?backdoor\b` +
				`|\binsert (a )?backdoor\b|\bdisable security\b|\bweaken encryption\b`),
		MinProfile: ProfilePermissive,
	},
	{
		Code: model.ReasonDataExfiltration,
		Pattern: regexp.MustCompile(
			`(?is)\b(exfiltrate|leak|steal|dump|upload|send)\b.{0,80}\b(secrets?|credentials?|tokens?|` +
				`passwords?|api keys?|private keys?|env|environment variables?)\b`),
		MinProfile: ProfilePermissive,
	},
	{
		Code: model.ReasonToolCallSerialized,
		Pattern: regexp.MustCompile(
			`(?is)"?(tool|name)"?\s*:\s*"?[A-Za-z0-9_.-]+"?.{0,200}` +
				`"?(args|arguments|input)"?\s*:`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonPolicyBypass,
		Pattern: regexp.MustCompile(
			`(?i)\b(bypass|disable|ignore)\b.{0,40}\b(safety|guardrails?|policy|restrictions?)\b` +
				`|\bno (rules|restrictions|safety)\b|\bwithout (any )?restrictions\b`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonDirectToolCall,
		Pattern: regexp.MustCompile(
			`(?i)(?:^|[.!?]\s+)(?:please\s+)?` +
				`(?:you\s+(?:must|should|need to|are to)\s+)?` +
				`(?:call|invoke|use)\s+(?:the\s+)?(?:tool|mcp)\b`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonSensitiveFileAccess,
		Pattern: regexp.MustCompile(
			`(?i)(?:^|[.!?]\s+)(?:please\s+)?` +
				`(?:you\s+(?:must|should|need to|are to)\s+)?` +
				`(?:cat|read|open|print|dump)\b.{0,40}` +
				`(?:/etc/passwd|/etc/shadow|~/?\.ssh/|id_rsa\b|` +
				`\.aws/credentials|\.npmrc|\.pypirc|\.env\b)`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonPersonaShift,
		Pattern: regexp.MustCompile(
			`(?i)\bact as\b.{0,40}\b(system|developer|administrator|root|security)\b` +
				`|\byou are now\b.{0,40}\b(system|developer|administrator|root|security)\b` +
				`|\bchange your role\b|\broleplay as\b`),
		MinProfile: ProfileBalanced,
	},
	{
		Code: model.ReasonObfuscationMarker,
		Pattern: regexp.MustCompile(
			`(?is)\b(base64|rot13|hex|uuencode|gzip)\b.{0,80}` +
				`\b(decode|decrypt|deobfuscate|unmask)\b|\b(decode|decrypt|deobfuscate|unmask)\b` +
				`.{0,80}\b(base64|rot13|hex|uuencode|gzip)\b`),
		MinProfile: ProfileStrict,
	},
	{
		Code: model.ReasonCommandCoercion,
		Pattern: regexp.MustCompile(
			`(?i)(?:^|[.!?]\s+)(?:please\s+)?(?:run|execute|paste|enter)\b.{0,60}` +
				`\b(curl|wget|powershell|invoke-webrequest|sudo|chmod\s+\+x)\b`),
		MinProfile: ProfileStrict,
	},
	{
		Code: model.ReasonMultiStepInstruction,
		Pattern: regexp.MustCompile(
			`(?is)step\s*1:.*?(must|do not|don't|ignore).{0,200}step\s*2:`),
		MinProfile: ProfileStrict,
	},
	{
		Code: model.ReasonShellExecution,
		Pattern: regexp.MustCompile(
			`(?i)(?:^|[.!?]\s+)(?:please\s+)?` +
				`(?:you\s+(?:must|should|need to|are to)\s+)?` +
				`(?:run|execute)\b.{0,40}\bcommand\b.{0,40}` +
				`\b(?:shell|terminal|bash|zsh|powershell|cmd)\b`),
		MinProfile: ProfileStrict,
	},
}
