// Package textrange implements the half-open character ranges that position
// suggestions inside a document, and the edit-adjustment math that keeps
// those positions valid while the document mutates underneath them.
package textrange

import "fmt"

// Range is a half-open character interval [Start, End) in absolute document
// offsets. Ranges are value types; all operations return new values.
type Range struct {
	Start int
	End   int
}

// RangeError reports an attempt to build an invalid range.
type RangeError struct {
	Start int
	End   int
	Msg   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range [%d, %d): %s", e.Start, e.End, e.Msg)
}

// New validates and creates a range. Start must be >= 0 and End >= Start.
func New(start, end int) (Range, error) {
	if start < 0 {
		return Range{}, &RangeError{Start: start, End: end, Msg: "start is negative"}
	}
	if end < start {
		return Range{}, &RangeError{Start: start, End: end, Msg: "end precedes start"}
	}
	return Range{Start: start, End: end}, nil
}

// MustNew is New for ranges known to be valid (literals in tests, fixtures).
// It panics on invalid input.
func MustNew(start, end int) Range {
	r, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

// Len returns the number of characters covered.
func (r Range) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Overlaps reports whether r and o share at least one character position.
// Adjacent ranges ([0,10) and [10,20)) do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// ContainsPoint reports whether the character at offset p lies within r.
func (r Range) ContainsPoint(p int) bool {
	return r.Start <= p && p < r.End
}

// Shift returns the range moved by delta positions.
func (r Range) Shift(delta int) Range {
	return Range{Start: r.Start + delta, End: r.End + delta}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// ApplyEdit maps r through a splice edit that deletes deleteCount characters
// at editStart and inserts insertLength characters in their place. The second
// return is false when the edit swallows the range entirely, in which case
// the range no longer refers to any text and must be discarded.
//
// The six cases are checked in order; exactly one applies to any input.
func (r Range) ApplyEdit(editStart, deleteCount, insertLength int) (Range, bool) {
	editEnd := editStart + deleteCount
	delta := insertLength - deleteCount

	// Edit strictly after the range: nothing moves.
	if r.End <= editStart {
		return r, true
	}

	// Edit strictly before the range: both ends shift.
	if r.Start >= editEnd {
		return r.Shift(delta), true
	}

	// Range swallowed by the deleted region.
	if r.Start >= editStart && r.End <= editEnd {
		return Range{}, false
	}

	// Edit fully inside the range: the range absorbs the length change.
	if r.Start <= editStart && r.End >= editEnd {
		return Range{Start: r.Start, End: r.End + delta}, true
	}

	// Range starts before the edit, ends inside the deleted region.
	if r.Start < editStart && r.End <= editEnd {
		truncated := Range{Start: r.Start, End: editStart}
		if truncated.IsEmpty() {
			return Range{}, false
		}
		return truncated, true
	}

	// Range starts inside the deleted region, ends after the edit.
	newStart := editStart + insertLength
	newEnd := r.End + delta
	if newEnd <= newStart {
		return Range{}, false
	}
	return Range{Start: newStart, End: newEnd}, true
}
