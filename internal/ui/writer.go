package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/lifecycle"
)

// Color definitions for consistent UI
var (
	// Brown color for startup info
	brownColor = color.New(color.FgYellow, color.Faint)

	// Gray color for tool calls and secondary detail
	grayColor = color.New(color.FgWhite, color.Faint)

	// Red for errors
	errorColor = color.New(color.FgRed)

	// Yellow for warnings
	warnColor = color.New(color.FgYellow)

	// Active suggestion marker
	activeColor = color.New(color.FgCyan, color.Bold)

	categoryColors = map[highlight.Category]*color.Color{
		highlight.CategoryGrammar:   color.New(color.FgRed),
		highlight.CategoryClarity:   color.New(color.FgCyan),
		highlight.CategoryStyle:     color.New(color.FgMagenta),
		highlight.CategoryTone:      color.New(color.FgYellow),
		highlight.CategoryStructure: color.New(color.FgGreen),
	}
)

// Writer provides formatted output with consistent prefixes and optional colors.
type Writer struct {
	quiet  bool
	stdout io.Writer
	stderr io.Writer
}

// NewWriter creates a Writer bound to the process streams.
func NewWriter() *Writer {
	return &Writer{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetQuiet suppresses everything except errors and Plain output.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// StartupInfo prints startup information in brown.
func (w *Writer) StartupInfo(msg string) {
	if w.quiet {
		return
	}
	brownColor.Fprintln(w.stdout, msg)
}

// Info prints an info message with [info] prefix in gray.
func (w *Writer) Info(msg string) {
	if w.quiet {
		return
	}
	grayColor.Fprintf(w.stdout, "[info] %s\n", msg)
}

// Warn prints a warning message with [warn] prefix in yellow.
func (w *Writer) Warn(msg string) {
	if w.quiet {
		return
	}
	warnColor.Fprintf(w.stderr, "[warn] %s\n", msg)
}

// Error prints an error message with [error] prefix in red.
func (w *Writer) Error(msg string) {
	errorColor.Fprintf(w.stderr, "[error] %s\n", msg)
}

// Plain prints a line with no prefix or color, quiet mode included.
func (w *Writer) Plain(msg string) {
	fmt.Fprintln(w.stdout, msg)
}

// ToolCall prints a compact tool call representation in gray.
func (w *Writer) ToolCall(name, argsDisplay string) {
	if w.quiet {
		return
	}
	grayColor.Fprintf(w.stdout, "  %s[%s]\n", name, argsDisplay)
}

// ToolResult prints a tool result summary in gray.
func (w *Writer) ToolResult(summary, duration string) {
	if w.quiet {
		return
	}
	if duration != "" {
		grayColor.Fprintf(w.stdout, "  %s\n", duration)
	}
	grayColor.Fprintf(w.stdout, "  → %s\n", summary)
}

// Suggestion prints one suggestion with its ordinal, category color, and
// lifecycle state.
func (w *Writer) Suggestion(ordinal int, s highlight.Suggestion, state lifecycle.SuggestionState, active bool) {
	if w.quiet {
		return
	}
	marker := "  "
	if active {
		marker = activeColor.Sprint("> ")
	}
	cat := string(s.Category)
	if c, ok := categoryColors[s.Category]; ok {
		cat = c.Sprint(cat)
	}
	fmt.Fprintf(w.stdout, "%s%d. [%s] %s %q → %q\n", marker, ordinal, cat, s.Range, s.OriginalText, s.SuggestedRevision)
	grayColor.Fprintf(w.stdout, "     %s (%s)\n", s.Observation, state)
}

// Excerpt prints the document line holding a span, with the span underlined.
func (w *Writer) Excerpt(lineNumber int, line string, markStart, markEnd int) {
	if w.quiet {
		return
	}
	prefix := fmt.Sprintf("  %4d | ", lineNumber)
	fmt.Fprintf(w.stdout, "%s%s\n", prefix, line)
	if markStart < 0 || markEnd > len(line) || markStart >= markEnd {
		return
	}
	pad := len(prefix) + markStart
	marks := markEnd - markStart
	warnColor.Fprintf(w.stdout, "%*s%s\n", pad, "", repeat('^', marks))
}

func repeat(ch byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ch
	}
	return string(b)
}
