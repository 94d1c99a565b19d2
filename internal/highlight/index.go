package highlight

import (
	"fmt"
	"sort"

	"github.com/kvit-s/redline/internal/textrange"
)

// OverlapError reports an insertion that would overlap an item already in the
// index. The caller owns the retry decision; the index is unchanged.
type OverlapError struct {
	ID         string // the rejected item
	ExistingID string // the item it collided with
	Range      textrange.Range
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("suggestion %s at %s overlaps existing suggestion %s", e.ID, e.Range, e.ExistingID)
}

type entry struct {
	item Suggestion
	seq  int // insertion order, the tie-break at equal starts
}

// Index is an overlap-free, id-keyed collection of suggestions ordered by
// range start. It is not safe for concurrent use; the store serializes
// access to it.
type Index struct {
	byID    map[string]entry
	nextSeq int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]entry)}
}

// Len returns the number of items held.
func (ix *Index) Len() int { return len(ix.byID) }

// Has reports whether id is present.
func (ix *Index) Has(id string) bool {
	_, ok := ix.byID[id]
	return ok
}

// Get returns the item with the given id.
func (ix *Index) Get(id string) (Suggestion, bool) {
	e, ok := ix.byID[id]
	return e.item, ok
}

// Add inserts s, rejecting duplicates and any overlap with an existing item.
func (ix *Index) Add(s Suggestion) error {
	if _, ok := ix.byID[s.ID]; ok {
		return fmt.Errorf("suggestion %s already present", s.ID)
	}
	for _, e := range ix.byID {
		if e.item.Range.Overlaps(s.Range) {
			return &OverlapError{ID: s.ID, ExistingID: e.item.ID, Range: s.Range}
		}
	}
	ix.byID[s.ID] = entry{item: s, seq: ix.nextSeq}
	ix.nextSeq++
	return nil
}

// Delete removes id, reporting whether it was present.
func (ix *Index) Delete(id string) bool {
	if _, ok := ix.byID[id]; !ok {
		return false
	}
	delete(ix.byID, id)
	return true
}

// All returns every item sorted by range start, insertion order at ties.
func (ix *Index) All() []Suggestion {
	entries := make([]entry, 0, len(ix.byID))
	for _, e := range ix.byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].item.Range.Start != entries[j].item.Range.Start {
			return entries[i].item.Range.Start < entries[j].item.Range.Start
		}
		return entries[i].seq < entries[j].seq
	})
	out := make([]Suggestion, len(entries))
	for i, e := range entries {
		out[i] = e.item
	}
	return out
}

// QueryPoint returns all items whose range covers the character at offset p.
// With the no-overlap invariant that is at most one item, but the slice form
// keeps the call shape uniform with QueryRange.
func (ix *Index) QueryPoint(p int) []Suggestion {
	var out []Suggestion
	for _, s := range ix.All() {
		if s.Range.ContainsPoint(p) {
			out = append(out, s)
		}
	}
	return out
}

// QueryRange returns all items overlapping r, sorted by start.
func (ix *Index) QueryRange(r textrange.Range) []Suggestion {
	var out []Suggestion
	for _, s := range ix.All() {
		if s.Range.Overlaps(r) {
			out = append(out, s)
		}
	}
	return out
}

// ApplyEdit maps every stored range through the splice described by the
// arguments. It returns the ids of items whose text the edit destroyed, and
// whether anything moved or dropped at all. Surviving items keep their
// identity and payload; only positions move.
func (ix *Index) ApplyEdit(editStart, deleteCount, insertLength int) (dropped []string, changed bool) {
	for id, e := range ix.byID {
		adjusted, ok := e.item.Range.ApplyEdit(editStart, deleteCount, insertLength)
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		if adjusted != e.item.Range {
			changed = true
		}
		e.item.Range = adjusted
		ix.byID[id] = e
	}
	for _, id := range dropped {
		delete(ix.byID, id)
		changed = true
	}
	sort.Strings(dropped)
	return dropped, changed
}

// Clone returns an independent copy of the index.
func (ix *Index) Clone() *Index {
	out := &Index{byID: make(map[string]entry, len(ix.byID)), nextSeq: ix.nextSeq}
	for id, e := range ix.byID {
		out.byID[id] = e
	}
	return out
}

// BuildStrategy selects how FromSlice resolves overlapping inputs.
type BuildStrategy string

const (
	// KeepFirst processes items in input order and rejects any item that
	// overlaps one already accepted. At identical starts the earlier input
	// index wins; rejected items come back in input order.
	KeepFirst BuildStrategy = "keep-first"
)

// FromSlice bulk-builds an index from items. The rejected slice reports the
// inputs dropped by the strategy so callers can surface them.
func FromSlice(items []Suggestion, strategy BuildStrategy) (*Index, []Suggestion, error) {
	if strategy != KeepFirst {
		return nil, nil, fmt.Errorf("unknown build strategy %q", strategy)
	}
	ix := NewIndex()
	var rejected []Suggestion
	for _, s := range items {
		if err := ix.Add(s); err != nil {
			rejected = append(rejected, s)
		}
	}
	return ix, rejected, nil
}
