// Package cardtext reduces rendered card HTML to plain text for table
// views and log lines. Card markup is never re-rendered by this toolkit;
// it is either passed through untouched or flattened here.
package cardtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()

	// Tags that end a visual run of text. Replaced with a space before
	// stripping so "line one<br>line two" keeps its word boundary.
	breakTags = regexp.MustCompile(`(?i)<(br|hr)\s*/?>|</(p|div|li|tr|td|th|ul|ol|table)>`)
)

// Strip flattens card HTML to a single line of plain text: tags removed,
// entities decoded, whitespace collapsed.
func Strip(cardHTML string) string {
	spaced := breakTags.ReplaceAllString(cardHTML, " ")
	text := stripPolicy.Sanitize(spaced)
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// Preview is Strip capped at max runes, with an ellipsis when truncated.
// A max of zero or less means no cap.
func Preview(cardHTML string, max int) string {
	text := Strip(cardHTML)
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
