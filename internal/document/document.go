// Package document provides an immutable snapshot of the text under review:
// the content, its line decomposition, and derived statistics. The engine
// re-reads the document through an accessor right before every use, so a
// snapshot is always built fresh and never cached across mutations.
package document

import (
	"fmt"
	"strings"
)

// Getter reads the current document content. Supplied by the embedding
// application; the engine never persists or caches the document itself.
type Getter func() string

// Updater writes new document content back to the owner.
type Updater func(content string)

// Snapshot is a point-in-time view of the document with a line index.
type Snapshot struct {
	Content    string
	Lines      []string
	lineStarts []int // absolute offset of each line's first character
}

// NewSnapshot builds a snapshot of content. A document always has at least
// one line: the empty document has one empty line.
func NewSnapshot(content string) *Snapshot {
	lines := strings.Split(content, "\n")
	starts := make([]int, len(lines))
	off := 0
	for i, line := range lines {
		starts[i] = off
		off += len(line) + 1 // the split newline
	}
	return &Snapshot{Content: content, Lines: lines, lineStarts: starts}
}

// LineCount returns the number of lines (at least 1).
func (s *Snapshot) LineCount() int { return len(s.Lines) }

// Line returns the 1-based line, without its trailing newline.
func (s *Snapshot) Line(lineNumber int) (string, error) {
	if lineNumber < 1 || lineNumber > len(s.Lines) {
		return "", fmt.Errorf("line %d out of bounds (document has %d lines)", lineNumber, len(s.Lines))
	}
	return s.Lines[lineNumber-1], nil
}

// LineStart returns the absolute offset of the 1-based line's first character.
func (s *Snapshot) LineStart(lineNumber int) (int, error) {
	if lineNumber < 1 || lineNumber > len(s.Lines) {
		return 0, fmt.Errorf("line %d out of bounds (document has %d lines)", lineNumber, len(s.Lines))
	}
	return s.lineStarts[lineNumber-1], nil
}

// LineAt returns the 1-based number of the line containing the absolute
// offset. Offsets past the end map to the last line.
func (s *Snapshot) LineAt(offset int) int {
	lo, hi := 0, len(s.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// Offset converts a 1-based line number and 0-based column into an absolute
// offset. The column may equal the line length (the position just past the
// last character) but not exceed it.
func (s *Snapshot) Offset(lineNumber, column int) (int, error) {
	start, err := s.LineStart(lineNumber)
	if err != nil {
		return 0, err
	}
	lineLen := len(s.Lines[lineNumber-1])
	if column < 0 || column > lineLen {
		return 0, fmt.Errorf("column %d out of bounds on line %d (length %d)", column, lineNumber, lineLen)
	}
	return start + column, nil
}

// Slice returns the text between absolute offsets [start, end), clamped to
// the document.
func (s *Snapshot) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s.Content) {
		end = len(s.Content)
	}
	if start >= end {
		return ""
	}
	return s.Content[start:end]
}
