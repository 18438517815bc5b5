// Package redact masks secret-like tokens in sanitized text before it
// reaches the caller or the quarantine excerpt.
package redact

import (
	"regexp"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// Mask replaces every secret match.
const Mask = "[REDACTED]"

type rule struct {
	Kind    model.RedactionKind
	Pattern *regexp.Regexp
}

// rules run in order; each rule scans the output of the previous one.
var rules = []rule{
	{model.RedactAPIKey, regexp.MustCompile(`\bsk-[A-Za-z0-9]{8,}\b`)},
	{model.RedactAWSAccessKey, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{model.RedactPrivateKey, regexp.MustCompile(`-----BEGIN [A-Z ]+PRIVATE KEY-----`)},
}

// Redact masks secret-like tokens and reports a count per rule that
// matched at least once. The returned slice is never nil.
func Redact(text string) (string, []model.Redaction) {
	redactions := make([]model.Redaction, 0)
	out := text
	for _, r := range rules {
		matches := r.Pattern.FindAllStringIndex(out, -1)
		if len(matches) == 0 {
			continue
		}
		out = r.Pattern.ReplaceAllLiteralString(out, Mask)
		redactions = append(redactions, model.Redaction{Kind: r.Kind, Count: len(matches)})
	}
	return out, redactions
}
