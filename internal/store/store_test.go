package store

import (
	"testing"

	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/textrange"
)

func sugg(t *testing.T, start, end int, original string) highlight.Suggestion {
	t.Helper()
	s, err := highlight.NewSuggestion(textrange.MustNew(start, end), highlight.CategoryClarity, original, "obs", "rev", nil)
	if err != nil {
		t.Fatalf("NewSuggestion: %v", err)
	}
	return s
}

func TestReduce_AddIncrementsVersion(t *testing.T) {
	st := NewState()
	next := Reduce(st, Add{Item: sugg(t, 0, 5, "a")})
	if next.Version != 1 {
		t.Errorf("Version = %d, want 1", next.Version)
	}
	if SelectCount(next) != 1 {
		t.Errorf("Count = %d", SelectCount(next))
	}
	// Input state untouched.
	if SelectCount(st) != 0 || st.Version != 0 {
		t.Error("Reducer must not mutate the input state")
	}
}

func TestReduce_AddOverlapRejects(t *testing.T) {
	a := sugg(t, 0, 10, "a")
	b := sugg(t, 5, 15, "b")
	st := Reduce(NewState(), Add{Item: a})
	next := Reduce(st, Add{Item: b})
	if SelectCount(next) != 1 {
		t.Errorf("Overlapping add must be excluded, count=%d", SelectCount(next))
	}
	if len(next.LastRejectedIDs) != 1 || next.LastRejectedIDs[0] != b.ID {
		t.Errorf("LastRejectedIDs = %v", next.LastRejectedIDs)
	}
	if next.Version != st.Version+1 {
		t.Errorf("Rejection is still an effective change, version=%d", next.Version)
	}
}

func TestReduce_SetActiveUnknownIsNoOp(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	next := Reduce(st, SetActive{ID: "nope"})
	if next.Version != st.Version || next.Highlights != st.Highlights {
		t.Error("SetActive with unknown id must return the state unchanged")
	}
}

func TestReduce_SetActiveSameIDIsNoOp(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	st = Reduce(st, SetActive{ID: a.ID})
	v := st.Version
	next := Reduce(st, SetActive{ID: a.ID})
	if next.Version != v {
		t.Error("Re-activating the active id must be a no-op")
	}
}

func TestReduce_SetActiveAndClear(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	st = Reduce(st, SetActive{ID: a.ID})
	if st.ActiveID != a.ID {
		t.Fatalf("ActiveID = %q", st.ActiveID)
	}
	active, ok := SelectActive(st)
	if !ok || active.ID != a.ID {
		t.Error("SelectActive must return the active suggestion")
	}
	st = Reduce(st, SetActive{ID: ""})
	if st.ActiveID != "" {
		t.Error("Empty id must clear the active suggestion")
	}
}

func TestReduce_RemoveClearsActive(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	st = Reduce(st, SetActive{ID: a.ID})
	st = Reduce(st, Remove{ID: a.ID})
	if st.ActiveID != "" {
		t.Error("Removing the active suggestion must clear ActiveID")
	}
	if SelectCount(st) != 0 {
		t.Error("Suggestion must be gone")
	}
}

func TestReduce_RemoveUnknownIsNoOp(t *testing.T) {
	st := Reduce(NewState(), Add{Item: sugg(t, 0, 5, "a")})
	next := Reduce(st, Remove{ID: "nope"})
	if next.Version != st.Version {
		t.Error("Removing an unknown id must be a no-op")
	}
}

func TestReduce_RemoveAll(t *testing.T) {
	st := Reduce(NewState(), Add{Item: sugg(t, 0, 5, "a")})
	st = Reduce(st, Add{Item: sugg(t, 10, 15, "b")})
	v := st.Version
	st = Reduce(st, RemoveAll{})
	if SelectCount(st) != 0 || st.Version != v+1 {
		t.Errorf("RemoveAll left count=%d version=%d", SelectCount(st), st.Version)
	}
	// Already empty: no-op.
	again := Reduce(st, RemoveAll{})
	if again.Version != st.Version {
		t.Error("RemoveAll on empty state must be a no-op")
	}
}

func TestReduce_SetAllReportsRejects(t *testing.T) {
	a := sugg(t, 0, 10, "a")
	b := sugg(t, 5, 15, "b")
	c := sugg(t, 20, 30, "c")
	st := Reduce(NewState(), SetAll{Items: []highlight.Suggestion{a, b, c}})
	if SelectCount(st) != 2 {
		t.Errorf("Count = %d", SelectCount(st))
	}
	rej := SelectRejectedIDs(st)
	if len(rej) != 1 || rej[0] != b.ID {
		t.Errorf("RejectedIDs = %v", rej)
	}
}

func TestReduce_ApplyEditDropsActive(t *testing.T) {
	a := sugg(t, 5, 10, "a")
	st := Reduce(NewState(), Add{Item: a})
	st = Reduce(st, SetActive{ID: a.ID})
	st = Reduce(st, ApplyEdit{EditStart: 0, DeleteCount: 20, InsertLength: 0})
	if SelectCount(st) != 0 {
		t.Error("Swallowed suggestion must be dropped")
	}
	if st.ActiveID != "" {
		t.Error("ActiveID must clear when the active suggestion is dropped")
	}
}

func TestReduce_ApplyEditNoChangeIsNoOp(t *testing.T) {
	st := Reduce(NewState(), Add{Item: sugg(t, 0, 5, "a")})
	next := Reduce(st, ApplyEdit{EditStart: 100, DeleteCount: 1, InsertLength: 1})
	if next.Version != st.Version {
		t.Error("Edit past every range must be a no-op")
	}
}

func TestReduce_UpdateHighlightRangeChange(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	moved := a.WithRange(textrange.MustNew(10, 15))
	st = Reduce(st, UpdateHighlight{ID: a.ID, To: moved})
	got, ok := SelectByID(st, a.ID)
	if !ok || got.Range != textrange.MustNew(10, 15) {
		t.Errorf("Range update failed: %+v ok=%v", got, ok)
	}
}

func TestReduce_UpdateHighlightOverlapRejected(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	b := sugg(t, 10, 15, "b")
	st := Reduce(NewState(), Add{Item: a})
	st = Reduce(st, Add{Item: b})
	moved := a.WithRange(textrange.MustNew(12, 18))
	next := Reduce(st, UpdateHighlight{ID: a.ID, To: moved})
	got, _ := SelectByID(next, a.ID)
	if got.Range != a.Range {
		t.Error("Conflicting range update must leave the item in place")
	}
	if len(next.LastRejectedIDs) != 1 || next.LastRejectedIDs[0] != a.ID {
		t.Errorf("LastRejectedIDs = %v", next.LastRejectedIDs)
	}
}

func TestReduce_UpdateHighlightPayloadOnly(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	updated := a
	updated.SuggestedRevision = "better"
	st = Reduce(st, UpdateHighlight{ID: a.ID, To: updated})
	got, _ := SelectByID(st, a.ID)
	if got.SuggestedRevision != "better" {
		t.Errorf("SuggestedRevision = %q", got.SuggestedRevision)
	}
}

func TestReduce_RestoreReinstatesSnapshot(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	st := Reduce(NewState(), Add{Item: a})
	snapshot := st
	st = Reduce(st, Remove{ID: a.ID})
	st = Reduce(st, Restore{State: snapshot})
	if st.Version != snapshot.Version || SelectCount(st) != 1 {
		t.Errorf("Restore must reinstate the snapshot verbatim, version=%d count=%d", st.Version, SelectCount(st))
	}
}

func TestStore_DispatchNotifiesOnChange(t *testing.T) {
	s := New()
	var seen []uint64
	unsubscribe := s.Subscribe(func(st State) {
		seen = append(seen, st.Version)
	})
	defer unsubscribe()

	a := sugg(t, 0, 5, "a")
	if _, changed := s.Dispatch(Add{Item: a}); !changed {
		t.Error("Add must report a change")
	}
	if _, changed := s.Dispatch(Remove{ID: "nope"}); changed {
		t.Error("No-op must not report a change")
	}
	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("Listener calls = %v", seen)
	}
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New()
	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })
	s.Dispatch(Add{Item: sugg(t, 0, 5, "a")})
	unsubscribe()
	s.Dispatch(RemoveAll{})
	if calls != 1 {
		t.Errorf("Expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestSelectors_PointAndRange(t *testing.T) {
	a := sugg(t, 0, 5, "a")
	b := sugg(t, 10, 15, "b")
	st := Reduce(NewState(), SetAll{Items: []highlight.Suggestion{a, b}})
	if got := SelectAtPoint(st, 2); len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("SelectAtPoint = %v", got)
	}
	if got := SelectInRange(st, textrange.MustNew(4, 11)); len(got) != 2 {
		t.Errorf("SelectInRange = %v", got)
	}
	if !SelectHas(st, b.ID) {
		t.Error("SelectHas missed b")
	}
}
