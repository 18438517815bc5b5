// Package pipeline runs the guard sequence over untrusted text:
// normalize, sanitize, detect, redact, decide, then quarantine and
// audit as side effects of the decision.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/config"
	"github.com/bridgewarden/bridgewarden/internal/decision"
	"github.com/bridgewarden/bridgewarden/internal/detect"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/normalize"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
	"github.com/bridgewarden/bridgewarden/internal/redact"
	"github.com/bridgewarden/bridgewarden/internal/sanitize"
)

// Options configure one guard run. Zero-value fields fall back to the
// defaults: balanced profile, no quarantine, no audit.
type Options struct {
	Profile    string
	Quarantine *quarantine.Store
	Audit      *audit.Logger
}

// ContentHash returns the hex SHA-256 of the raw input text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Guard runs the full pipeline and returns the guard result. A BLOCK
// empties the sanitized text, assigns a quarantine id, and persists
// the record when a quarantine store is configured. The context is
// checked before the store and log side effects.
func Guard(ctx context.Context, text string, source model.Source, opts Options) (*model.GuardResult, error) {
	if source.Kind == "" {
		source.Kind = model.SourceLocal
	}
	profileName := opts.Profile
	if profileName == "" {
		profileName = config.DefaultProfile
	}

	normalized := normalize.Normalize(text)
	sanitized := sanitize.Sanitize(normalized.Text)
	reasons := detect.Detect(sanitized, normalized.UnicodeSuspicious, profileName)
	redactedText, redactions := redact.Redact(sanitized)
	verdict, riskScore := decision.Decide(reasons, decision.GetProfile(profileName))
	contentHash := ContentHash(text)

	result := &model.GuardResult{
		Decision:      verdict,
		RiskScore:     riskScore,
		Reasons:       reasons,
		Source:        source,
		ContentHash:   contentHash,
		SanitizedText: redactedText,
		Redactions:    redactions,
		CacheHit:      false,
		PolicyVersion: config.PolicyVersion,
	}

	if verdict == model.Block {
		result.SanitizedText = ""
		result.QuarantineID = quarantine.BuildID(contentHash)
		if opts.Quarantine != nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec := quarantine.Record{
				Source:        source,
				Decision:      verdict,
				RiskScore:     riskScore,
				Reasons:       reasons,
				Redactions:    redactions,
				PolicyVersion: config.PolicyVersion,
			}
			if _, err := opts.Quarantine.Put(contentHash, text, redactedText, rec); err != nil {
				return nil, fmt.Errorf("quarantine put failed: %w", err)
			}
		}
	}

	if opts.Audit != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := opts.Audit.Record(result); err != nil {
			return nil, fmt.Errorf("audit record failed: %w", err)
		}
	}

	return result, nil
}
