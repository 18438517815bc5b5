// Package sanitize defangs tag-like instruction framing before detection.
package sanitize

import "regexp"

var tagRe = regexp.MustCompile(`<[^>]+>`)

// Sanitize removes HTML-tag-like spans in a single pass. The output is
// not HTML-safe; the goal is only to strip tag framing such as
// "<system>" before the detector runs.
func Sanitize(text string) string {
	return tagRe.ReplaceAllString(text, "")
}
