// Package normalize folds incoming text to NFKC and strips characters
// used to hide or reorder instructions.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizedText is normalized text plus the unicode risk flag.
type NormalizedText struct {
	Text              string
	UnicodeSuspicious bool
}

// bidi override and isolate controls.
var bidiChars = map[rune]bool{
	'\u202A': true, // LEFT-TO-RIGHT EMBEDDING
	'\u202B': true, // RIGHT-TO-LEFT EMBEDDING
	'\u202C': true, // POP DIRECTIONAL FORMATTING
	'\u202D': true, // LEFT-TO-RIGHT OVERRIDE
	'\u202E': true, // RIGHT-TO-LEFT OVERRIDE
	'\u2066': true, // LEFT-TO-RIGHT ISOLATE
	'\u2067': true, // RIGHT-TO-LEFT ISOLATE
	'\u2068': true, // FIRST STRONG ISOLATE
	'\u2069': true, // POP DIRECTIONAL ISOLATE
}

// zero-width characters, including the BOM when it appears mid-text.
// Escapes, not literals: the compiler rejects a raw BOM mid-file.
var zeroWidthChars = map[rune]bool{
	'\u200B': true, // ZERO WIDTH SPACE
	'\u200C': true, // ZERO WIDTH NON-JOINER
	'\u200D': true, // ZERO WIDTH JOINER
	'\u2060': true, // WORD JOINER
	'\uFEFF': true, // ZERO WIDTH NO-BREAK SPACE / BOM
}

// Normalize applies NFKC, unifies newlines to LF, and removes bidi and
// zero-width characters. UnicodeSuspicious is true iff any character was
// removed. Normalize is idempotent over its own output.
func Normalize(text string) NormalizedText {
	s := norm.NFKC.String(text)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	suspicious := false
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if bidiChars[ch] || zeroWidthChars[ch] {
			suspicious = true
			continue
		}
		b.WriteRune(ch)
	}
	return NormalizedText{Text: b.String(), UnicodeSuspicious: suspicious}
}
