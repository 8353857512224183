// Package normalize sanitizes raw review text before indexing and scoring.
package normalize

import (
	"html"
	"regexp"
	"strings"
)

// tagRE matches angle-bracket delimited markup tags. No structural awareness
// is needed; unbalanced brackets are left alone rather than failing.
var tagRE = regexp.MustCompile(`<[^>]+>`)

// Clean normalizes raw title/body text: decodes HTML character entities,
// replaces each markup tag with a single space, collapses whitespace runs to
// single spaces, and trims the result. Entities are decoded exactly once, so
// double-escaped input keeps one level of escaping rather than being decoded
// to a fixpoint.
func Clean(s string) string {
	s = html.UnescapeString(s)
	s = tagRE.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
