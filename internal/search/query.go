// Package search builds backend card-search queries from the browse
// filters. Building is pure string work; no I/O happens here.
package search

import "strings"

// DefaultQuery is used when every filter is empty, so a fresh browse
// session shows the review queue instead of an unbounded scan.
const DefaultQuery = "is:review"

// Status fragments understood by the backend's search grammar.
const (
	StatusAny       = ""
	StatusNew       = "is:new"
	StatusLearning  = "is:learn"
	StatusDue       = "is:due"
	StatusReview    = "is:review"
	StatusSuspended = "is:suspended"
	StatusBuried    = "is:buried"
)

var statusFragments = map[string]struct{}{
	StatusNew:       {},
	StatusLearning:  {},
	StatusDue:       {},
	StatusReview:    {},
	StatusSuspended: {},
	StatusBuried:    {},
}

// ValidStatus reports whether s is an accepted status fragment. The empty
// string is valid and means "any state".
func ValidStatus(s string) bool {
	if s == StatusAny {
		return true
	}
	_, ok := statusFragments[s]
	return ok
}

// Filters are the four browse inputs that shape a card search.
type Filters struct {
	Deck     string
	Status   string
	FreeText string
	Advanced string
}

// Build derives the effective query. A non-empty advanced query wins
// outright and is returned as typed, replacing all other filters. The
// composed form joins deck, status and free text fragments with single
// spaces, falling back to DefaultQuery when everything is empty.
func (f Filters) Build() string {
	if adv := strings.TrimSpace(f.Advanced); adv != "" {
		return adv
	}

	var parts []string
	if f.Deck != "" {
		parts = append(parts, DeckFragment(f.Deck))
	}
	if f.Status != "" {
		parts = append(parts, f.Status)
	}
	if text := strings.TrimSpace(f.FreeText); text != "" {
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return DefaultQuery
	}
	return strings.Join(parts, " ")
}

// DeckFragment quotes a deck name for the search grammar. Embedded double
// quotes are escaped so names like `He said "hi"` survive.
func DeckFragment(deck string) string {
	return `deck:"` + strings.ReplaceAll(deck, `"`, `\"`) + `"`
}
