// Package model defines the shared result types exchanged between the
// guard pipeline, the stores, and the tool surface.
package model

import "slices"

// Decision is the guard outcome for a piece of content.
type Decision string

const (
	Allow Decision = "ALLOW"
	Warn  Decision = "WARN"
	Block Decision = "BLOCK"
)

// ReasonCode names a detected pattern or policy condition. The vocabulary
// is closed; reason sets are always serialized sorted and deduplicated.
type ReasonCode string

// Detection reason codes.
const (
	ReasonRoleImpersonation     ReasonCode = "ROLE_IMPERSONATION"
	ReasonRoleHeader            ReasonCode = "ROLE_HEADER"
	ReasonPromptBoundary        ReasonCode = "PROMPT_BOUNDARY"
	ReasonInstructionOverride   ReasonCode = "INSTRUCTION_OVERRIDE"
	ReasonInstructionHeader     ReasonCode = "INSTRUCTION_HEADER"
	ReasonResponseConstraint    ReasonCode = "RESPONSE_CONSTRAINT"
	ReasonStealthInstruction    ReasonCode = "STEALTH_INSTRUCTION"
	ReasonProcessSabotage       ReasonCode = "PROCESS_SABOTAGE"
	ReasonCodeTamperingCoercion ReasonCode = "CODE_TAMPERING_COERCION"
	ReasonDataExfiltration      ReasonCode = "DATA_EXFILTRATION"
	ReasonToolCallSerialized    ReasonCode = "TOOL_CALL_SERIALIZED"
	ReasonPolicyBypass          ReasonCode = "POLICY_BYPASS"
	ReasonDirectToolCall        ReasonCode = "DIRECT_TOOL_CALL"
	ReasonSensitiveFileAccess   ReasonCode = "SENSITIVE_FILE_ACCESS"
	ReasonPersonaShift          ReasonCode = "PERSONA_SHIFT"
	ReasonObfuscationMarker     ReasonCode = "OBFUSCATION_MARKER"
	ReasonCommandCoercion       ReasonCode = "COMMAND_COERCION"
	ReasonMultiStepInstruction  ReasonCode = "MULTI_STEP_INSTRUCTION"
	ReasonShellExecution        ReasonCode = "SHELL_EXECUTION"
	ReasonUnicodeSuspicious     ReasonCode = "UNICODE_SUSPICIOUS"
)

// Policy-gate reason codes. These appear alone on a BLOCK with
// risk_score 1.0 and an empty content hash.
const (
	ReasonPathTraversal          ReasonCode = "PATH_TRAVERSAL"
	ReasonFileNotFound           ReasonCode = "FILE_NOT_FOUND"
	ReasonRawModeNotAllowed      ReasonCode = "RAW_MODE_NOT_ALLOWED"
	ReasonInvalidMode            ReasonCode = "INVALID_MODE"
	ReasonInvalidMaxBytes        ReasonCode = "INVALID_MAX_BYTES"
	ReasonNetworkDisabled        ReasonCode = "NETWORK_DISABLED"
	ReasonNetworkHostBlocked     ReasonCode = "NETWORK_HOST_BLOCKED"
	ReasonSSRFBlocked            ReasonCode = "SSRF_BLOCKED"
	ReasonUnsupportedURLScheme   ReasonCode = "UNSUPPORTED_URL_SCHEME"
	ReasonNewSourceNeedsApproval ReasonCode = "NEW_SOURCE_REQUIRES_APPROVAL"
	ReasonNetworkError           ReasonCode = "NETWORK_ERROR"
	ReasonRepoIDUnsupported      ReasonCode = "REPO_ID_UNSUPPORTED"
	ReasonRepoFetchFailed        ReasonCode = "REPO_FETCH_FAILED"
	ReasonFileTooLarge           ReasonCode = "FILE_TOO_LARGE"
)

// SourceKind classifies where guarded content came from.
type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceFile  SourceKind = "file"
	SourceWeb   SourceKind = "web"
	SourceRepo  SourceKind = "repo"
)

// Source identifies the origin of guarded content. Only the fields
// relevant to the kind are populated.
type Source struct {
	Kind        SourceKind `json:"kind"`
	Path        string     `json:"path,omitempty"`
	URL         string     `json:"url,omitempty"`
	Domain      string     `json:"domain,omitempty"`
	ResolvedURL string     `json:"resolved_url,omitempty"`
	RepoID      string     `json:"repo_id,omitempty"`
}

// RedactionKind names a secret detection rule.
type RedactionKind string

const (
	RedactAPIKey       RedactionKind = "API_KEY"
	RedactAWSAccessKey RedactionKind = "AWS_ACCESS_KEY"
	RedactPrivateKey   RedactionKind = "PRIVATE_KEY"
)

// Redaction reports how many matches of one secret kind were masked.
type Redaction struct {
	Kind  RedactionKind `json:"kind"`
	Count int           `json:"count"`
}

// GuardResult is the canonical output of the guard pipeline.
//
// Invariants: decision == BLOCK iff sanitized_text is empty; any
// quarantine_id implies BLOCK; content_hash is the hex SHA-256 of the
// raw input (empty only for policy-gate blocks that never hash).
type GuardResult struct {
	Decision      Decision     `json:"decision"`
	RiskScore     float64      `json:"risk_score"`
	Reasons       []ReasonCode `json:"reasons"`
	Source        Source       `json:"source"`
	ContentHash   string       `json:"content_hash"`
	SanitizedText string       `json:"sanitized_text"`
	QuarantineID  string       `json:"quarantine_id,omitempty"`
	Redactions    []Redaction  `json:"redactions"`
	CacheHit      bool         `json:"cache_hit"`
	PolicyVersion string       `json:"policy_version"`
	ApprovalID    string       `json:"approval_id,omitempty"`
}

// ChangedFile records one file touched by a repo fetch.
type ChangedFile struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// RepoFinding is the per-file guard outcome inside a repo report.
type RepoFinding struct {
	Path        string       `json:"path"`
	Decision    Decision     `json:"decision"`
	RiskScore   float64      `json:"risk_score"`
	Reasons     []ReasonCode `json:"reasons"`
	ContentHash string       `json:"content_hash"`
}

// RepoSummary aggregates finding counts for a repo fetch.
type RepoSummary struct {
	Total     int `json:"total"`
	Allowed   int `json:"allowed"`
	Warned    int `json:"warned"`
	Blocked   int `json:"blocked"`
	CacheHits int `json:"cache_hits"`
}

// RepoReport is the result of fetching and scanning a repository.
// Blocked reports (policy gate or fetch failure) carry Reasons and
// Source; successful reports leave them empty.
type RepoReport struct {
	RepoID        string        `json:"repo_id"`
	NewRevision   string        `json:"new_revision"`
	ChangedFiles  []ChangedFile `json:"changed_files"`
	Summary       RepoSummary   `json:"summary"`
	Findings      []RepoFinding `json:"findings"`
	QuarantineIDs []string      `json:"quarantine_ids"`
	Reasons       []ReasonCode  `json:"reasons,omitempty"`
	Source        *Source       `json:"source,omitempty"`
	ApprovalID    string        `json:"approval_id,omitempty"`
}

// BlockedRepoReport builds the fixed-shape report for a repo fetch that
// was stopped by a policy gate before any file was scanned.
func BlockedRepoReport(source Source, reason ReasonCode, approvalID string) *RepoReport {
	src := source
	return &RepoReport{
		ChangedFiles:  []ChangedFile{},
		Summary:       RepoSummary{Blocked: 1},
		Findings:      []RepoFinding{},
		QuarantineIDs: []string{},
		Reasons:       []ReasonCode{reason},
		Source:        &src,
		ApprovalID:    approvalID,
	}
}

// SortReasons returns a sorted, deduplicated copy of the given codes.
func SortReasons(codes []ReasonCode) []ReasonCode {
	seen := make(map[ReasonCode]bool, len(codes))
	out := make([]ReasonCode, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
