package store

import (
	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/textrange"
)

// Selectors are pure projections over a State. They never mutate.

// SelectAll returns every suggestion sorted by range start.
func SelectAll(s State) []highlight.Suggestion {
	return s.Highlights.All()
}

// SelectActive returns the active suggestion, if any.
func SelectActive(s State) (highlight.Suggestion, bool) {
	if s.ActiveID == "" {
		return highlight.Suggestion{}, false
	}
	return s.Highlights.Get(s.ActiveID)
}

// SelectByID returns the suggestion with the given id.
func SelectByID(s State, id string) (highlight.Suggestion, bool) {
	return s.Highlights.Get(id)
}

// SelectCount returns the number of held suggestions.
func SelectCount(s State) int {
	return s.Highlights.Len()
}

// SelectHas reports whether id is held.
func SelectHas(s State, id string) bool {
	return s.Highlights.Has(id)
}

// SelectAtPoint returns the suggestions covering the character at offset p.
func SelectAtPoint(s State, p int) []highlight.Suggestion {
	return s.Highlights.QueryPoint(p)
}

// SelectInRange returns the suggestions overlapping r.
func SelectInRange(s State, r textrange.Range) []highlight.Suggestion {
	return s.Highlights.QueryRange(r)
}

// SelectRejectedIDs returns the ids rejected by the last effective dispatch.
func SelectRejectedIDs(s State) []string {
	return s.LastRejectedIDs
}
