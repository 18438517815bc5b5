// Package decision maps detected reason codes to a risk score and a
// guard decision under a named policy profile.
package decision

import (
	"math"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// defaultWeight applies to any reason code missing from reasonWeights.
const defaultWeight = 0.1

// reasonWeights is the per-code contribution to the risk score. Codes
// absent here score defaultWeight; PERSONA_SHIFT is intentionally
// unlisted and scores the default.
var reasonWeights = map[model.ReasonCode]float64{
	model.ReasonRoleImpersonation:     0.4,
	model.ReasonInstructionOverride:   0.5,
	model.ReasonStealthInstruction:    0.3,
	model.ReasonProcessSabotage:       0.7,
	model.ReasonCodeTamperingCoercion: 0.7,
	model.ReasonDataExfiltration:      0.6,
	model.ReasonPolicyBypass:          0.5,
	model.ReasonDirectToolCall:        0.4,
	model.ReasonSensitiveFileAccess:   0.6,
	model.ReasonShellExecution:        0.5,
	model.ReasonUnicodeSuspicious:     0.2,
}

// blockReasons force BLOCK regardless of the computed score.
var blockReasons = map[model.ReasonCode]bool{
	model.ReasonProcessSabotage:       true,
	model.ReasonCodeTamperingCoercion: true,
}

// PolicyProfile holds the thresholds and overrides for one profile.
type PolicyProfile struct {
	Name           string
	WarnThreshold  float64
	BlockThreshold float64
	BlockReasons   map[model.ReasonCode]bool
}

// Profiles are the built-in policy profiles. Thresholds tighten from
// permissive to strict; the warn threshold is common to all three.
var Profiles = map[string]PolicyProfile{
	"strict": {
		Name:           "strict",
		WarnThreshold:  0.2,
		BlockThreshold: 0.6,
		BlockReasons:   blockReasons,
	},
	"balanced": {
		Name:           "balanced",
		WarnThreshold:  0.2,
		BlockThreshold: 0.9,
		BlockReasons:   blockReasons,
	},
	"permissive": {
		Name:           "permissive",
		WarnThreshold:  0.2,
		BlockThreshold: 0.95,
		BlockReasons:   blockReasons,
	},
}

// GetProfile resolves a profile by name. Unknown names fall back to
// strict so a misconfigured profile fails closed.
func GetProfile(name string) PolicyProfile {
	if p, ok := Profiles[name]; ok {
		return p
	}
	return Profiles["strict"]
}

// Score sums the weights of the deduplicated reason codes, capped at
// 1.0 and rounded to two decimals.
func Score(reasons []model.ReasonCode) float64 {
	seen := make(map[model.ReasonCode]bool, len(reasons))
	var score float64
	for _, code := range reasons {
		if seen[code] {
			continue
		}
		seen[code] = true
		w, ok := reasonWeights[code]
		if !ok {
			w = defaultWeight
		}
		score += w
	}
	return math.Round(math.Min(1.0, score)*100) / 100
}

// Decide returns the decision and risk score for the given reasons
// under a profile. Block-reason overrides are checked before the
// thresholds.
func Decide(reasons []model.ReasonCode, profile PolicyProfile) (model.Decision, float64) {
	riskScore := Score(reasons)
	for _, code := range reasons {
		if profile.BlockReasons[code] {
			return model.Block, riskScore
		}
	}
	if riskScore >= profile.BlockThreshold {
		return model.Block, riskScore
	}
	if riskScore >= profile.WarnThreshold {
		return model.Warn, riskScore
	}
	return model.Allow, riskScore
}
