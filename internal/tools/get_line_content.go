package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetLineContentTool returns one line of the document, optionally with a
// window of surrounding lines, so the agent can ground its column numbers
// before highlighting.
type GetLineContentTool struct{}

func NewGetLineContentTool() *GetLineContentTool {
	return &GetLineContentTool{}
}

type getLineContentParams struct {
	LineNumber   int  `json:"line_number"`
	ContextLines *int `json:"context_lines,omitempty"`
}

func (p *getLineContentParams) validate() error {
	if p.LineNumber < 1 {
		return fmt.Errorf("line_number must be >= 1, got %d", p.LineNumber)
	}
	if p.ContextLines != nil && *p.ContextLines < 0 {
		return fmt.Errorf("context_lines must be >= 0, got %d", *p.ContextLines)
	}
	return nil
}

// LineInfo describes one line with its absolute position.
type LineInfo struct {
	LineNumber  int    `json:"line_number"`
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"`
	Length      int    `json:"length"`
}

// LineWindow is the value for a context_lines request.
type LineWindow struct {
	Requested int        `json:"requested_line"`
	Lines     []LineInfo `json:"lines"`
}

func (t *GetLineContentTool) Name() string {
	return "get_line_content"
}

func (t *GetLineContentTool) Description() string {
	return "Read one line of the document with its offset and length, optionally with context_lines lines before and after."
}

func (t *GetLineContentTool) Mutating() bool { return false }

func (t *GetLineContentTool) JSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"line_number": map[string]any{
				"type":        "integer",
				"description": "1-based line number to read",
			},
			"context_lines": map[string]any{
				"type":        "integer",
				"description": "Lines of context before and after (default: 0)",
			},
		},
		"required": []string{"line_number"},
	}
}

func (t *GetLineContentTool) Check(args json.RawMessage) error {
	var p getLineContentParams
	if err := json.Unmarshal(args, &p); err != nil {
		return fmt.Errorf("malformed arguments: %w", err)
	}
	return p.validate()
}

func (t *GetLineContentTool) Call(ctx context.Context, args json.RawMessage, tc *Context) Result {
	var p getLineContentParams
	if err := json.Unmarshal(args, &p); err != nil {
		return Failure(CodeInvalidParams, true, "malformed arguments: %v", err)
	}

	if p.LineNumber > tc.Doc.LineCount() {
		return Failure(CodeLineOutOfBounds, true,
			"line %d out of bounds (document has %d lines)", p.LineNumber, tc.Doc.LineCount())
	}

	info := func(lineNumber int) LineInfo {
		content, _ := tc.Doc.Line(lineNumber)
		start, _ := tc.Doc.LineStart(lineNumber)
		return LineInfo{
			LineNumber:  lineNumber,
			Content:     content,
			StartOffset: start,
			Length:      len(content),
		}
	}

	if p.ContextLines == nil || *p.ContextLines == 0 {
		return Success(info(p.LineNumber), "")
	}

	first := p.LineNumber - *p.ContextLines
	if first < 1 {
		first = 1
	}
	last := p.LineNumber + *p.ContextLines
	if last > tc.Doc.LineCount() {
		last = tc.Doc.LineCount()
	}
	window := LineWindow{Requested: p.LineNumber}
	for n := first; n <= last; n++ {
		window.Lines = append(window.Lines, info(n))
	}
	return Success(window, "")
}
