package tools

import "fmt"

// Code classifies tool failures for the agent's retry decisions.
type Code string

const (
	CodeLineOutOfBounds   Code = "LINE_OUT_OF_BOUNDS"
	CodeColumnOutOfBounds Code = "COLUMN_OUT_OF_BOUNDS"
	CodeTextMismatch      Code = "TEXT_MISMATCH"
	CodeUnknownTool       Code = "UNKNOWN_TOOL"
	CodeInvalidParams     Code = "INVALID_PARAMS"
	CodeTimeout           Code = "TIMEOUT"
	CodeAborted           Code = "ABORTED"
	CodeExecutionError    Code = "EXECUTION_ERROR"
)

// Result is a tool call's outcome: either a success carrying a value and an
// optional message, or a failure carrying an error with a code and a
// recoverability flag. Recoverable failures are worth re-planning around;
// non-recoverable ones end the exchange.
type Result struct {
	OK          bool   `json:"success"`
	Value       any    `json:"value,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        Code   `json:"code,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`
}

// Success builds a successful result.
func Success(value any, message string) Result {
	return Result{OK: true, Value: value, Message: message}
}

// Failure builds a failed result.
func Failure(code Code, recoverable bool, format string, args ...any) Result {
	return Result{
		Code:        code,
		Recoverable: recoverable,
		Error:       fmt.Sprintf(format, args...),
	}
}
