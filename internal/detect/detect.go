// Package detect implements the heuristic detectors for instruction-like
// content. Detection is deterministic pattern matching — no ML, no
// network calls — so identical inputs always yield identical reason
// sets. The rule tables are part of the versioned policy.
package detect

import (
	"sort"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// Profile names, ordered permissive < balanced < strict. A higher tier
// activates more rules: strict is the most permissive of firings.
const (
	ProfilePermissive = "permissive"
	ProfileBalanced   = "balanced"
	ProfileStrict     = "strict"
)

type tier int

var profileTiers = map[string]tier{
	ProfilePermissive: 1,
	ProfileBalanced:   2,
	ProfileStrict:     3,
}

// profileTier resolves a profile name to its firing tier. Unknown names
// resolve to strict.
func profileTier(name string) tier {
	if t, ok := profileTiers[name]; ok {
		return t
	}
	return profileTiers[ProfileStrict]
}

func tierFor(code model.ReasonCode) tier {
	name, ok := minProfileByCode[code]
	if !ok {
		name = ProfileStrict
	}
	return profileTiers[name]
}

// Detect returns the sorted, deduplicated reason codes found in the
// sanitized text under the given profile.
//
// Matching order (the output is order-free, but hints are not):
//  1. Class A English regex rules.
//  2. Class B core language phrases; each hit records a language hint.
//  3. Obfuscation sweep over the collapsed input: fixed fingerprints
//     plus collapsed core phrases (which also record hints).
//  4. Class C extended phrases and their collapsed forms, only for
//     hinted languages.
//  5. UNICODE_SUSPICIOUS when the normalizer flagged the input.
func Detect(text string, unicodeSuspicious bool, profileName string) []model.ReasonCode {
	maxTier := profileTier(profileName)
	reasons := make(map[model.ReasonCode]bool)
	hints := make(map[string]bool)

	for _, rule := range englishRules {
		if profileTiers[rule.MinProfile] > maxTier {
			continue
		}
		if rule.Pattern.MatchString(text) {
			reasons[rule.Code] = true
		}
	}

	for _, language := range languageOrder {
		for _, rule := range coreLanguageRules[language] {
			if profileTiers[rule.MinProfile] > maxTier {
				continue
			}
			if rule.Pattern.MatchString(text) {
				reasons[rule.Code] = true
				hints[language] = true
			}
		}
	}

	collapsed := Collapse(text)
	matchFingerprints(collapsed, fixedFingerprints, maxTier, reasons, nil)
	for _, language := range languageOrder {
		matchFingerprints(collapsed, coreFingerprints[language], maxTier, reasons, hints)
	}

	for _, language := range languageOrder {
		if !hints[language] {
			continue
		}
		for _, rule := range extendedLanguageRules[language] {
			if profileTiers[rule.MinProfile] > maxTier {
				continue
			}
			if rule.Pattern.MatchString(text) {
				reasons[rule.Code] = true
			}
		}
		matchFingerprints(collapsed, extendedFingerprints[language], maxTier, reasons, nil)
	}

	if unicodeSuspicious {
		reasons[model.ReasonUnicodeSuspicious] = true
	}

	out := make([]model.ReasonCode, 0, len(reasons))
	for code := range reasons {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReasonCodes lists every code the detector can emit, sorted.
func ReasonCodes() []model.ReasonCode {
	seen := make(map[model.ReasonCode]bool)
	for _, rule := range englishRules {
		seen[rule.Code] = true
	}
	for _, rules := range coreLanguageRules {
		for _, rule := range rules {
			seen[rule.Code] = true
		}
	}
	for _, rules := range extendedLanguageRules {
		for _, rule := range rules {
			seen[rule.Code] = true
		}
	}
	seen[model.ReasonUnicodeSuspicious] = true

	out := make([]model.ReasonCode, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
