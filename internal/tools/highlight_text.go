package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/textrange"
)

// HighlightTextTool proposes a suggestion over a span of one document line.
// On success its Value is the highlight.Suggestion for the engine to insert
// into the store; the tool itself mutates nothing.
type HighlightTextTool struct{}

func NewHighlightTextTool() *HighlightTextTool {
	return &HighlightTextTool{}
}

type highlightTextParams struct {
	LineNumber        int      `json:"line_number"`
	StartColumn       int      `json:"start_column"`
	EndColumn         int      `json:"end_column"`
	OriginalText      string   `json:"original_text"`
	SuggestionType    string   `json:"suggestion_type"`
	Observation       string   `json:"observation"`
	SuggestedRevision string   `json:"suggested_revision"`
	Confidence        *float64 `json:"confidence,omitempty"`
}

func (p *highlightTextParams) validate() error {
	if p.LineNumber < 1 {
		return fmt.Errorf("line_number must be >= 1, got %d", p.LineNumber)
	}
	if p.StartColumn < 0 {
		return fmt.Errorf("start_column must be >= 0, got %d", p.StartColumn)
	}
	if p.EndColumn <= p.StartColumn {
		return fmt.Errorf("end_column (%d) must exceed start_column (%d)", p.EndColumn, p.StartColumn)
	}
	if p.OriginalText == "" {
		return fmt.Errorf("original_text is required")
	}
	if !highlight.IsSuggestionCategory(highlight.Category(p.SuggestionType)) {
		return fmt.Errorf("suggestion_type %q is not one of %v", p.SuggestionType, highlight.SuggestionCategories)
	}
	if p.Observation == "" {
		return fmt.Errorf("observation is required")
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		return fmt.Errorf("confidence must be within [0, 1], got %v", *p.Confidence)
	}
	return nil
}

func (t *HighlightTextTool) Name() string {
	return "highlight_text"
}

func (t *HighlightTextTool) Description() string {
	return "Highlight a span of text on one line and attach an observation and a suggested revision. The span must match original_text exactly; mismatched positions are re-located within the same line when possible."
}

func (t *HighlightTextTool) Mutating() bool { return true }

func (t *HighlightTextTool) JSONSchema() map[string]any {
	categories := make([]string, len(highlight.SuggestionCategories))
	for i, c := range highlight.SuggestionCategories {
		categories[i] = string(c)
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"line_number": map[string]any{
				"type":        "integer",
				"description": "1-based line number of the text to highlight",
			},
			"start_column": map[string]any{
				"type":        "integer",
				"description": "0-based column where the highlight starts",
			},
			"end_column": map[string]any{
				"type":        "integer",
				"description": "0-based column just past the highlight's last character",
			},
			"original_text": map[string]any{
				"type":        "string",
				"description": "Exact text currently at the highlighted span",
			},
			"suggestion_type": map[string]any{
				"type":        "string",
				"enum":        categories,
				"description": "Category of the issue being flagged",
			},
			"observation": map[string]any{
				"type":        "string",
				"description": "What is wrong or could be improved",
			},
			"suggested_revision": map[string]any{
				"type":        "string",
				"description": "Replacement text (may be empty to suggest deletion)",
			},
			"confidence": map[string]any{
				"type":        "number",
				"description": "Optional confidence between 0 and 1",
			},
		},
		"required": []string{
			"line_number", "start_column", "end_column",
			"original_text", "suggestion_type", "observation", "suggested_revision",
		},
	}
}

func (t *HighlightTextTool) Check(args json.RawMessage) error {
	var p highlightTextParams
	if err := json.Unmarshal(args, &p); err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	return p.validate()
}

func (t *HighlightTextTool) Call(ctx context.Context, args json.RawMessage, tc *Context) Result {
	var p highlightTextParams
	if err := json.Unmarshal(args, &p); err != nil {
		return Failure(CodeInvalidParams, true, "malformed arguments: %v", err)
	}

	line, err := tc.Doc.Line(p.LineNumber)
	if err != nil {
		return Failure(CodeLineOutOfBounds, true,
			"line %d out of bounds (document has %d lines)", p.LineNumber, tc.Doc.LineCount())
	}
	if p.EndColumn > len(line) {
		return Failure(CodeColumnOutOfBounds, true,
			"end_column %d past line %d end (length %d)", p.EndColumn, p.LineNumber, len(line))
	}

	lineStart, err := tc.Doc.LineStart(p.LineNumber)
	if err != nil {
		return Failure(CodeLineOutOfBounds, true, "%v", err)
	}

	start := lineStart + p.StartColumn
	message := ""
	if line[p.StartColumn:p.EndColumn] != p.OriginalText {
		// The agent's columns are stale. Accept the call anyway if the text
		// is somewhere on the same line.
		idx := strings.Index(line, p.OriginalText)
		if idx < 0 {
			return Failure(CodeTextMismatch, true,
				"text at line %d columns %d-%d is %q, not %q, and %q does not occur on that line",
				p.LineNumber, p.StartColumn, p.EndColumn,
				line[p.StartColumn:p.EndColumn], p.OriginalText, p.OriginalText)
		}
		start = lineStart + idx
		message = fmt.Sprintf("text found at column %d instead of %d; highlight position adjusted", idx, p.StartColumn)
	}

	r, err := textrange.New(start, start+len(p.OriginalText))
	if err != nil {
		return Failure(CodeExecutionError, false, "computed range invalid: %v", err)
	}

	sug, err := highlight.NewSuggestion(
		r,
		highlight.Category(p.SuggestionType),
		p.OriginalText,
		p.Observation,
		p.SuggestedRevision,
		p.Confidence,
	)
	if err != nil {
		return Failure(CodeInvalidParams, true, "%v", err)
	}

	if existing := tc.Store.Highlights.QueryRange(r); len(existing) > 0 {
		return Failure(CodeInvalidParams, true,
			"span %s overlaps existing suggestion %s; highlight a different span", r, existing[0].ID)
	}

	return Success(sug, message)
}
