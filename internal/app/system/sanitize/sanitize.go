// Package sanitize cleans student-supplied profile text before it is
// stored. Club descriptions may carry limited formatting; everything else
// is stored as plain text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Text strips all markup and returns trimmed plain text. Entities are
// unescaped afterward so "A & B" round-trips as "A & B".
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Rich keeps the safe formatting subset (paragraphs, lists, links, emphasis)
// and removes scripts, event handlers, and unsafe protocols.
func Rich(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}
