package tools

import (
	"context"
	"encoding/json"
)

// GetDocumentStatsTool summarizes the document so the agent can calibrate
// the depth of its review.
type GetDocumentStatsTool struct{}

func NewGetDocumentStatsTool() *GetDocumentStatsTool {
	return &GetDocumentStatsTool{}
}

func (t *GetDocumentStatsTool) Name() string {
	return "get_document_stats"
}

func (t *GetDocumentStatsTool) Description() string {
	return "Get word, line, and paragraph counts, line length statistics, and an estimated reading time for the document."
}

func (t *GetDocumentStatsTool) Mutating() bool { return false }

func (t *GetDocumentStatsTool) JSONSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *GetDocumentStatsTool) Check(args json.RawMessage) error {
	// No parameters; anything decodable as an object is accepted.
	if len(args) == 0 {
		return nil
	}
	var p map[string]any
	return json.Unmarshal(args, &p)
}

func (t *GetDocumentStatsTool) Call(ctx context.Context, args json.RawMessage, tc *Context) Result {
	return Success(tc.Doc.ComputeStats(), "")
}
