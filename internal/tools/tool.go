package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface all review tools implement. Tools never touch the
// live document or the store: they read the snapshot in Context and return
// values; the engine performs any resulting mutation.
type Tool interface {
	// Name returns the tool identifier (e.g., "highlight_text")
	Name() string

	// Description returns a human-readable description for the agent
	Description() string

	// JSONSchema returns the parameter schema in function-calling format
	JSONSchema() map[string]any

	// Mutating reports whether a successful call produces state changes.
	// ExecuteParallel refuses mutating tools.
	Mutating() bool

	// Check parses and validates arguments before execution.
	// Returns error if the tool must not be executed.
	Check(args json.RawMessage) error

	// Call executes the tool against the context snapshot.
	// Check is called before Call.
	Call(ctx context.Context, args json.RawMessage, tc *Context) Result
}
