// Package highlight defines the positioned annotations the engine tracks and
// the overlap-free index that keeps them queryable and edit-aware.
package highlight

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kvit-s/redline/internal/textrange"
)

// Category classifies what a highlight marks in the document.
type Category string

const (
	CategoryGrammar   Category = "grammar"
	CategoryClarity   Category = "clarity"
	CategoryStyle     Category = "style"
	CategoryTone      Category = "tone"
	CategoryStructure Category = "structure"

	// Non-suggestion categories used by other highlight consumers.
	// Suggestions are never created with these.
	CategorySearch    Category = "search"
	CategorySelection Category = "selection"
)

// SuggestionCategories lists the categories an agent-proposed suggestion may
// carry, in a stable order for schema export.
var SuggestionCategories = []Category{
	CategoryGrammar,
	CategoryClarity,
	CategoryStyle,
	CategoryTone,
	CategoryStructure,
}

// IsSuggestionCategory reports whether c is valid for a suggestion.
func IsSuggestionCategory(c Category) bool {
	for _, sc := range SuggestionCategories {
		if c == sc {
			return true
		}
	}
	return false
}

// Highlight is a positioned annotation over the document.
type Highlight struct {
	ID       string
	Range    textrange.Range
	Category Category
	Priority int
	Metadata map[string]any
}

// Suggestion is a highlight carrying an agent-proposed revision for the text
// it covers. OriginalText records the exact document text at creation time;
// it is what accept/undo relocate against after the document drifts.
type Suggestion struct {
	Highlight
	OriginalText      string
	Observation       string
	SuggestedRevision string
	Confidence        *float64 // nil when the agent reported none; otherwise in [0, 1]
}

// NewSuggestion builds a suggestion with a fresh id. It validates the
// category and the confidence bound; the range is assumed to have come
// through textrange.New.
func NewSuggestion(r textrange.Range, category Category, originalText, observation, revision string, confidence *float64) (Suggestion, error) {
	if !IsSuggestionCategory(category) {
		return Suggestion{}, fmt.Errorf("category %q is not a suggestion category", category)
	}
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return Suggestion{}, fmt.Errorf("confidence %v outside [0, 1]", *confidence)
	}
	return Suggestion{
		Highlight: Highlight{
			ID:       uuid.NewString(),
			Range:    r,
			Category: category,
		},
		OriginalText:      originalText,
		Observation:       observation,
		SuggestedRevision: revision,
		Confidence:        confidence,
	}, nil
}

// WithRange returns a copy of s positioned at r.
func (s Suggestion) WithRange(r textrange.Range) Suggestion {
	s.Range = r
	return s
}
