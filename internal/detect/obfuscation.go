package detect

import (
	"strings"
	"unicode"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// fingerprint is a collapsed-text signature checked by substring match.
type fingerprint struct {
	Collapsed string
	Code      model.ReasonCode
	Language  string // set for collapsed language phrases, empty for the fixed table
}

// fixedFingerprints catch spaced-out and punctuated spellings of the
// highest-value attack phrases ("i g n o r e previous instructions").
// Gated by each code's minimum profile like any other rule.
var fixedFingerprints = []fingerprint{
	{Collapsed: "ignorepreviousinstructions", Code: model.ReasonInstructionOverride},
	{Collapsed: "ignoreallpreviousinstructions", Code: model.ReasonInstructionOverride},
	{Collapsed: "disregardpreviousinstructions", Code: model.ReasonInstructionOverride},
	{Collapsed: "addbackdoor", Code: model.ReasonCodeTamperingCoercion},
	{Collapsed: "addabackdoor", Code: model.ReasonCodeTamperingCoercion},
	{Collapsed: "insertabackdoor", Code: model.ReasonCodeTamperingCoercion},
	{Collapsed: "disablesecurity", Code: model.ReasonCodeTamperingCoercion},
	{Collapsed: "skipthetests", Code: model.ReasonProcessSabotage},
	{Collapsed: "donotruntests", Code: model.ReasonProcessSabotage},
	{Collapsed: "donotmention", Code: model.ReasonStealthInstruction},
	{Collapsed: "keepthissecret", Code: model.ReasonStealthInstruction},
	{Collapsed: "exfiltratesecrets", Code: model.ReasonDataExfiltration},
	{Collapsed: "leaksecrets", Code: model.ReasonDataExfiltration},
	{Collapsed: "bypasssafety", Code: model.ReasonPolicyBypass},
}

// minCollapsedLen keeps short collapsed phrases out of the sweep; below
// this length substring matches are too noisy to be meaningful.
const minCollapsedLen = 6

// Collapsed forms of the language phrase tables, length-gated. Core
// fingerprints contribute language hints exactly like their spelled-out
// counterparts; extended fingerprints stay gated on those hints.
var (
	coreFingerprints     = collapseRules(coreLanguageRules)
	extendedFingerprints = collapseRules(extendedLanguageRules)
)

func collapseRules(rulesByLanguage map[string][]languageRule) map[string][]fingerprint {
	out := make(map[string][]fingerprint, len(rulesByLanguage))
	for language, rules := range rulesByLanguage {
		var fps []fingerprint
		for _, rule := range rules {
			for _, phrase := range rule.Phrases {
				c := Collapse(phrase)
				if len([]rune(c)) < minCollapsedLen {
					continue
				}
				fps = append(fps, fingerprint{Collapsed: c, Code: rule.Code, Language: language})
			}
		}
		out[language] = fps
	}
	return out
}

// Collapse lowercases text and keeps only letters and digits, removing
// whitespace and punctuation that attackers use to split phrases.
func Collapse(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, ch := range text {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			b.WriteRune(unicode.ToLower(ch))
		}
	}
	return b.String()
}

// matchFingerprints records the codes of fingerprints whose collapsed
// form occurs in the collapsed input, honoring profile gating. When
// hints is non-nil, matching language fingerprints record their hint.
func matchFingerprints(collapsed string, fps []fingerprint, maxTier tier, reasons map[model.ReasonCode]bool, hints map[string]bool) {
	for _, fp := range fps {
		if tierFor(fp.Code) > maxTier {
			continue
		}
		if strings.Contains(collapsed, fp.Collapsed) {
			reasons[fp.Code] = true
			if hints != nil && fp.Language != "" {
				hints[fp.Language] = true
			}
		}
	}
}
