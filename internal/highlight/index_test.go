package highlight

import (
	"testing"

	"github.com/kvit-s/redline/internal/textrange"
)

func sugg(t *testing.T, start, end int, original string) Suggestion {
	t.Helper()
	s, err := NewSuggestion(textrange.MustNew(start, end), CategoryClarity, original, "obs", "rev", nil)
	if err != nil {
		t.Fatalf("NewSuggestion: %v", err)
	}
	return s
}

func TestNewSuggestion_RejectsNonSuggestionCategory(t *testing.T) {
	_, err := NewSuggestion(textrange.MustNew(0, 3), CategorySearch, "a", "b", "c", nil)
	if err == nil {
		t.Error("Expected error for search category")
	}
}

func TestNewSuggestion_RejectsBadConfidence(t *testing.T) {
	bad := 1.5
	_, err := NewSuggestion(textrange.MustNew(0, 3), CategoryTone, "a", "b", "c", &bad)
	if err == nil {
		t.Error("Expected error for confidence outside [0, 1]")
	}
}

func TestIndex_AddAndGet(t *testing.T) {
	ix := NewIndex()
	s := sugg(t, 0, 5, "hello")
	if err := ix.Add(s); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !ix.Has(s.ID) {
		t.Error("Expected Has to report the added item")
	}
	got, ok := ix.Get(s.ID)
	if !ok || got.OriginalText != "hello" {
		t.Errorf("Get returned %+v ok=%v", got, ok)
	}
}

func TestIndex_AddRejectsOverlap(t *testing.T) {
	ix := NewIndex()
	a := sugg(t, 0, 10, "a")
	b := sugg(t, 5, 15, "b")
	if err := ix.Add(a); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	err := ix.Add(b)
	if err == nil {
		t.Fatal("Expected overlap error")
	}
	oe, ok := err.(*OverlapError)
	if !ok {
		t.Fatalf("Expected *OverlapError, got %T", err)
	}
	if oe.ExistingID != a.ID {
		t.Errorf("Expected collision with %s, got %s", a.ID, oe.ExistingID)
	}
	if ix.Len() != 1 {
		t.Errorf("Index must be unchanged after rejection, len=%d", ix.Len())
	}
}

func TestIndex_AdjacentAllowed(t *testing.T) {
	ix := NewIndex()
	if err := ix.Add(sugg(t, 0, 10, "a")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Add(sugg(t, 10, 20, "b")); err != nil {
		t.Errorf("Adjacent ranges must be accepted: %v", err)
	}
}

func TestIndex_AllSortedByStart(t *testing.T) {
	ix := NewIndex()
	c := sugg(t, 20, 25, "c")
	a := sugg(t, 0, 5, "a")
	b := sugg(t, 10, 15, "b")
	for _, s := range []Suggestion{c, a, b} {
		if err := ix.Add(s); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	all := ix.All()
	if len(all) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(all))
	}
	if all[0].ID != a.ID || all[1].ID != b.ID || all[2].ID != c.ID {
		t.Error("All() not sorted by range start")
	}
}

func TestIndex_QueryPointAndRange(t *testing.T) {
	ix := NewIndex()
	a := sugg(t, 0, 5, "a")
	b := sugg(t, 10, 15, "b")
	if err := ix.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(b); err != nil {
		t.Fatal(err)
	}

	hits := ix.QueryPoint(12)
	if len(hits) != 1 || hits[0].ID != b.ID {
		t.Errorf("QueryPoint(12) = %v", hits)
	}
	if got := ix.QueryPoint(5); len(got) != 0 {
		t.Errorf("QueryPoint(5) must miss [0,5), got %v", got)
	}

	hits = ix.QueryRange(textrange.MustNew(3, 12))
	if len(hits) != 2 {
		t.Errorf("QueryRange must hit both items, got %d", len(hits))
	}
}

func TestIndex_ApplyEditShiftsAndDrops(t *testing.T) {
	ix := NewIndex()
	a := sugg(t, 0, 5, "a")
	b := sugg(t, 10, 15, "b")
	c := sugg(t, 20, 30, "c")
	for _, s := range []Suggestion{a, b, c} {
		if err := ix.Add(s); err != nil {
			t.Fatal(err)
		}
	}

	// Delete [8, 18): b is swallowed, c shifts left by 10.
	dropped, changed := ix.ApplyEdit(8, 10, 0)
	if !changed {
		t.Error("Expected ApplyEdit to report a change")
	}
	if len(dropped) != 1 || dropped[0] != b.ID {
		t.Errorf("Expected %s dropped, got %v", b.ID, dropped)
	}
	gotA, _ := ix.Get(a.ID)
	if gotA.Range != textrange.MustNew(0, 5) {
		t.Errorf("a moved to %s", gotA.Range)
	}
	gotC, _ := ix.Get(c.ID)
	if gotC.Range != textrange.MustNew(10, 20) {
		t.Errorf("c moved to %s, expected [10, 20)", gotC.Range)
	}
}

func TestIndex_ApplyEditNoChange(t *testing.T) {
	ix := NewIndex()
	if err := ix.Add(sugg(t, 0, 5, "a")); err != nil {
		t.Fatal(err)
	}
	dropped, changed := ix.ApplyEdit(50, 3, 3)
	if changed || len(dropped) != 0 {
		t.Errorf("Edit past all ranges must change nothing, dropped=%v changed=%v", dropped, changed)
	}
}

func TestIndex_CloneIsIndependent(t *testing.T) {
	ix := NewIndex()
	a := sugg(t, 0, 5, "a")
	if err := ix.Add(a); err != nil {
		t.Fatal(err)
	}
	cp := ix.Clone()
	cp.Delete(a.ID)
	if !ix.Has(a.ID) {
		t.Error("Deleting from the clone must not affect the original")
	}
}

func TestFromSlice_KeepFirst(t *testing.T) {
	a := sugg(t, 0, 10, "a")
	b := sugg(t, 5, 15, "b")   // overlaps a, rejected
	c := sugg(t, 10, 20, "c")  // adjacent to a, kept
	d := sugg(t, 12, 18, "d")  // overlaps c, rejected
	in := []Suggestion{a, b, c, d}

	ix, rejected, err := FromSlice(in, KeepFirst)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if ix.Len() != 2 {
		t.Errorf("Expected 2 kept, got %d", ix.Len())
	}
	if len(rejected) != 2 || rejected[0].ID != b.ID || rejected[1].ID != d.ID {
		t.Errorf("Expected b, d rejected in input order, got %v", rejected)
	}
	// Kept plus rejected partitions the input.
	if ix.Len()+len(rejected) != len(in) {
		t.Error("kept + rejected must equal input size")
	}
}

func TestFromSlice_EqualStartsInputOrderWins(t *testing.T) {
	a := sugg(t, 5, 10, "first")
	b := sugg(t, 5, 8, "second")
	ix, rejected, err := FromSlice([]Suggestion{a, b}, KeepFirst)
	if err != nil {
		t.Fatal(err)
	}
	if !ix.Has(a.ID) || ix.Has(b.ID) {
		t.Error("At equal starts the earlier input must win")
	}
	if len(rejected) != 1 || rejected[0].ID != b.ID {
		t.Errorf("Expected only b rejected, got %v", rejected)
	}
}

func TestFromSlice_UnknownStrategy(t *testing.T) {
	if _, _, err := FromSlice(nil, BuildStrategy("keep-last")); err == nil {
		t.Error("Expected error for unknown strategy")
	}
}
