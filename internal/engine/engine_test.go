package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kvit-s/redline/internal/lifecycle"
	"github.com/kvit-s/redline/internal/store"
	"github.com/kvit-s/redline/internal/tools"
)

type docHolder struct {
	content string
}

func (d *docHolder) get() string        { return d.content }
func (d *docHolder) set(content string) { d.content = content }

func newTestEngine(t *testing.T, content string) (*Engine, *docHolder) {
	t.Helper()
	doc := &docHolder{content: content}
	e, err := New(Options{
		GetDocument: doc.get,
		SetDocument: doc.set,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, doc
}

func highlightCall(id string, line, startCol, endCol int, original, revision string) tools.Call {
	args, _ := json.Marshal(map[string]any{
		"line_number":        line,
		"start_column":       startCol,
		"end_column":         endCol,
		"original_text":      original,
		"suggestion_type":    "clarity",
		"observation":        "wording could be tighter",
		"suggested_revision": revision,
	})
	return tools.Call{ID: id, Name: "highlight_text", Arguments: args}
}

func finishCall(id string) tools.Call {
	return tools.Call{ID: id, Name: "finish_review", Arguments: json.RawMessage(`{}`)}
}

func runReview(t *testing.T, e *Engine, calls ...tools.Call) tools.BatchResult {
	t.Helper()
	if err := e.StartReview(); err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	calls = append(calls, finishCall(fmt.Sprintf("call-%d", len(calls))))
	return e.RunToolCalls(context.Background(), calls)
}

func TestEngine_ReviewProducesSuggestions(t *testing.T) {
	e, _ := newTestEngine(t, "The quick brown fox jumps.")

	batch := runReview(t, e, highlightCall("c1", 1, 4, 9, "quick", "swift"))
	if batch.Failed != 0 {
		t.Fatalf("batch failures: %+v", batch.Results)
	}

	if got := e.Session().State; got != lifecycle.SessionHasSuggestions {
		t.Errorf("session = %s, want has_suggestions", got)
	}
	sugs := e.Suggestions()
	if len(sugs) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(sugs))
	}
	ts, ok := e.Tracked(sugs[0].ID)
	if !ok {
		t.Fatal("suggestion not tracked")
	}
	if ts.State != lifecycle.StateReady {
		t.Errorf("tracked state = %s, want ready", ts.State)
	}
}

func TestEngine_ReviewWithNoSuggestionsReturnsToIdle(t *testing.T) {
	e, _ := newTestEngine(t, "Flawless prose.")

	runReview(t, e)
	if got := e.Session().State; got != lifecycle.SessionIdle {
		t.Errorf("session = %s, want idle", got)
	}
}

func TestEngine_OverlappingHighlightRejected(t *testing.T) {
	e, _ := newTestEngine(t, "The quick brown fox jumps.")

	batch := runReview(t, e,
		highlightCall("c1", 1, 4, 9, "quick", "swift"),
		highlightCall("c2", 1, 4, 15, "quick brown", "swift tawny"),
	)
	if batch.Failed != 1 {
		t.Fatalf("failed = %d, want 1: %+v", batch.Failed, batch.Results)
	}
	if len(e.Suggestions()) != 1 {
		t.Errorf("suggestions = %d, want 1", len(e.Suggestions()))
	}
}

func TestEngine_AcceptAppliesRevision(t *testing.T) {
	e, doc := newTestEngine(t, "The quick brown fox jumps.")

	runReview(t, e, highlightCall("c1", 1, 4, 9, "quick", "swift"))
	id := e.Suggestions()[0].ID

	if err := e.Accept(id); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if doc.content != "The swift brown fox jumps." {
		t.Errorf("document = %q", doc.content)
	}
	if got := e.Session().State; got != lifecycle.SessionIdle {
		t.Errorf("session = %s, want idle after last accept", got)
	}
	if ts, _ := e.Tracked(id); ts.State != lifecycle.StateCompleted {
		t.Errorf("tracked = %s, want completed", ts.State)
	}
	if n := store.SelectCount(e.Store().State()); n != 0 {
		t.Errorf("store count = %d, want 0", n)
	}
}

func TestEngine_UndoAcceptRestoresEverything(t *testing.T) {
	e, doc := newTestEngine(t, "The quick brown fox jumps.")

	runReview(t, e, highlightCall("c1", 1, 4, 9, "quick", "swift"))
	id := e.Suggestions()[0].ID

	if err := e.Accept(id); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	if doc.content != "The quick brown fox jumps." {
		t.Errorf("document = %q", doc.content)
	}
	if len(e.Suggestions()) != 1 {
		t.Fatalf("suggestion not reinstated")
	}
	if got := e.Session().State; got != lifecycle.SessionHasSuggestions {
		t.Errorf("session = %s, want has_suggestions after undo", got)
	}
	if ts, ok := e.Tracked(id); !ok || ts.State != lifecycle.StateReady {
		t.Errorf("tracked = %+v, want a fresh ready record", ts)
	}

	if err := e.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if doc.content != "The swift brown fox jumps." {
		t.Errorf("document after redo = %q", doc.content)
	}
}

func TestEngine_DismissLeavesDocumentUntouched(t *testing.T) {
	e, doc := newTestEngine(t, "The quick brown fox jumps.")

	runReview(t, e, highlightCall("c1", 1, 4, 9, "quick", "swift"))
	id := e.Suggestions()[0].ID

	if err := e.Dismiss(id); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if doc.content != "The quick brown fox jumps." {
		t.Errorf("document = %q", doc.content)
	}
	if len(e.Suggestions()) != 0 {
		t.Errorf("suggestion not removed")
	}
	if got := e.Session().State; got != lifecycle.SessionIdle {
		t.Errorf("session = %s, want idle", got)
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo dismiss: %v", err)
	}
	if len(e.Suggestions()) != 1 {
		t.Errorf("dismissed suggestion not reinstated")
	}
}

func TestEngine_DismissAllIsOneUndoStep(t *testing.T) {
	e, _ := newTestEngine(t, "The quick brown fox jumps over the lazy dog.")

	runReview(t, e,
		highlightCall("c1", 1, 4, 9, "quick", "swift"),
		highlightCall("c2", 1, 40, 43, "dog", "hound"),
	)
	if len(e.Suggestions()) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(e.Suggestions()))
	}

	if err := e.DismissAll(); err != nil {
		t.Fatalf("DismissAll: %v", err)
	}
	if len(e.Suggestions()) != 0 {
		t.Fatalf("suggestions remain after dismiss all")
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(e.Suggestions()) != 2 {
		t.Errorf("undo restored %d suggestions, want 2", len(e.Suggestions()))
	}
}

func TestEngine_TextEditShiftsAndRevalidates(t *testing.T) {
	e, doc := newTestEngine(t, "The quick brown fox jumps.")

	runReview(t, e, highlightCall("c1", 1, 10, 15, "brown", "tawny"))
	id := e.Suggestions()[0].ID

	// Insert "Well, " at the front of the document.
	doc.content = "Well, The quick brown fox jumps."
	e.ApplyTextEdit(0, 0, 6)

	sugs := e.Suggestions()
	if len(sugs) != 1 {
		t.Fatalf("suggestion lost after edit")
	}
	if sugs[0].Range.Start != 16 || sugs[0].Range.End != 21 {
		t.Errorf("range = %s, want [16,21)", sugs[0].Range)
	}
	if ts, _ := e.Tracked(id); ts.State != lifecycle.StateValidated {
		t.Errorf("tracked = %s, want validated", ts.State)
	}
}

func TestEngine_EditSwallowingSpanInvalidates(t *testing.T) {
	e, doc := newTestEngine(t, "The quick brown fox jumps.")

	runReview(t, e, highlightCall("c1", 1, 4, 9, "quick", "swift"))
	id := e.Suggestions()[0].ID

	// Delete "quick brown " entirely.
	doc.content = "The fox jumps."
	e.ApplyTextEdit(4, 12, 0)

	if len(e.Suggestions()) != 0 {
		t.Fatalf("suggestion survived an edit that removed its text")
	}
	if ts, _ := e.Tracked(id); ts.State != lifecycle.StateInvalidated {
		t.Errorf("tracked = %s, want invalidated", ts.State)
	}
	if got := e.Session().State; got != lifecycle.SessionIdle {
		t.Errorf("session = %s, want idle once no suggestions remain", got)
	}
}

func TestEngine_RelocatesDriftedText(t *testing.T) {
	e, doc := newTestEngine(t, "The quick fox.")

	runReview(t, e, highlightCall("c1", 1, 4, 9, "quick", "swift"))
	id := e.Suggestions()[0].ID

	// Replace "The " with "Honestly, the ". The engine is told a smaller
	// edit, leaving the remapped span off-target.
	doc.content = "Honestly, the quick fox."
	e.ApplyTextEdit(0, 4, 10)

	sugs := e.Suggestions()
	if len(sugs) != 1 {
		t.Fatalf("suggestion lost")
	}
	if got := sugs[0].Range.Start; got != 14 {
		t.Errorf("relocated start = %d, want 14", got)
	}
	if ts, _ := e.Tracked(id); ts.State != lifecycle.StateValidated {
		t.Errorf("tracked = %s, want validated", ts.State)
	}
}

func TestEngine_CancelReviewDropsEverything(t *testing.T) {
	e, _ := newTestEngine(t, "The quick brown fox jumps.")

	if err := e.StartReview(); err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	e.RunToolCalls(context.Background(), []tools.Call{
		highlightCall("c1", 1, 4, 9, "quick", "swift"),
	})
	if err := e.CancelReview(); err != nil {
		t.Fatalf("CancelReview: %v", err)
	}
	if len(e.Suggestions()) != 0 {
		t.Errorf("suggestions survive cancel")
	}
	if got := e.Session().State; got != lifecycle.SessionIdle {
		t.Errorf("session = %s, want idle", got)
	}
}

func TestEngine_StartReviewRequiresIdle(t *testing.T) {
	e, _ := newTestEngine(t, "text")
	if err := e.StartReview(); err != nil {
		t.Fatalf("first StartReview: %v", err)
	}
	if err := e.StartReview(); err == nil {
		t.Error("second StartReview should fail while reviewing")
	}
}

func TestEngine_FailReviewThenRecover(t *testing.T) {
	e, _ := newTestEngine(t, "text")
	if err := e.StartReview(); err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	e.FailReview(fmt.Errorf("agent unreachable"))

	s := e.Session()
	if s.State != lifecycle.SessionError {
		t.Fatalf("session = %s, want error", s.State)
	}
	if s.ErrorMessage != "agent unreachable" {
		t.Errorf("error message = %q", s.ErrorMessage)
	}
	e.Recover()
	if got := e.Session().State; got != lifecycle.SessionIdle {
		t.Errorf("session = %s, want idle after recover", got)
	}
}

func TestEngine_ActivateAndDeactivate(t *testing.T) {
	e, _ := newTestEngine(t, "The quick brown fox jumps over the lazy dog.")

	runReview(t, e,
		highlightCall("c1", 1, 4, 9, "quick", "swift"),
		highlightCall("c2", 1, 40, 43, "dog", "hound"),
	)
	sugs := e.Suggestions()

	if err := e.Activate(sugs[0].ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if ts, _ := e.Tracked(sugs[0].ID); ts.State != lifecycle.StateActive {
		t.Errorf("tracked = %s, want active", ts.State)
	}

	// Focus moving to the second suggestion deactivates the first.
	if err := e.Activate(sugs[1].ID); err != nil {
		t.Fatalf("Activate second: %v", err)
	}
	if ts, _ := e.Tracked(sugs[0].ID); ts.State != lifecycle.StateInactive {
		t.Errorf("first tracked = %s, want inactive", ts.State)
	}
	if active, ok := store.SelectActive(e.Store().State()); !ok || active.ID != sugs[1].ID {
		t.Errorf("active = %v", active.ID)
	}

	e.Deactivate()
	if _, ok := store.SelectActive(e.Store().State()); ok {
		t.Error("deactivate left a suggestion active")
	}
}

func TestEngine_MinConfidenceFiltersProposals(t *testing.T) {
	doc := &docHolder{content: "The quick brown fox jumps."}
	e, err := New(Options{
		GetDocument:   doc.get,
		SetDocument:   doc.set,
		MinConfidence: 0.7,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	call := highlightCall("c1", 1, 4, 9, "quick", "swift")
	var args map[string]any
	json.Unmarshal(call.Arguments, &args)
	args["confidence"] = 0.4
	call.Arguments, _ = json.Marshal(args)

	batch := runReview(t, e, call)
	if batch.Failed != 1 {
		t.Fatalf("failed = %d, want 1", batch.Failed)
	}
	if len(e.Suggestions()) != 0 {
		t.Error("low-confidence proposal stored")
	}
}

func TestEngine_MaxSuggestionsCap(t *testing.T) {
	doc := &docHolder{content: "The quick brown fox jumps over the lazy dog."}
	e, err := New(Options{
		GetDocument:    doc.get,
		SetDocument:    doc.set,
		MaxSuggestions: 1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	batch := runReview(t, e,
		highlightCall("c1", 1, 4, 9, "quick", "swift"),
		highlightCall("c2", 1, 40, 43, "dog", "hound"),
	)
	if batch.Failed != 1 {
		t.Fatalf("failed = %d, want 1", batch.Failed)
	}
	if len(e.Suggestions()) != 1 {
		t.Errorf("suggestions = %d, want 1", len(e.Suggestions()))
	}
}

func TestEngine_AcceptUnknownID(t *testing.T) {
	e, _ := newTestEngine(t, "text")
	if err := e.Accept("missing"); err == nil {
		t.Error("Accept of unknown id should fail")
	}
}
