// Package engine wires the suggestion store, the undo stacks, both state
// machines, and the tool executor into one review session over a single
// document. It is the interpreter for the session machine's side-effect
// descriptors: the machine decides, the engine performs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kvit-s/redline/internal/document"
	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/lifecycle"
	"github.com/kvit-s/redline/internal/store"
	"github.com/kvit-s/redline/internal/textrange"
	"github.com/kvit-s/redline/internal/tools"
	"github.com/kvit-s/redline/internal/undo"
)

// Options configures an Engine.
type Options struct {
	GetDocument document.Getter
	SetDocument document.Updater
	Registry    *tools.Registry // nil selects tools.DefaultRegistry
	ToolTimeout time.Duration
	UndoLimit   int
	Logger      *zap.Logger

	// RelocateOnDrift controls revalidation after a suggestion's span
	// moves: when true (the default policy) the engine searches the live
	// text for the original span before giving up on it.
	RelocateOnDrift *bool
	// MinConfidence drops proposed suggestions below the threshold.
	MinConfidence float64
	// MaxSuggestions caps how many suggestions one review may hold
	// (0 = unlimited).
	MaxSuggestions int
}

// Engine owns one review session over one document.
type Engine struct {
	mu       sync.Mutex
	getDoc   document.Getter
	setDoc   document.Updater
	store    *store.Store
	undoMgr  *undo.Manager
	registry *tools.Registry
	executor *tools.Executor
	session  lifecycle.SessionContext
	tracked  map[string]lifecycle.TrackedSuggestion
	log      *zap.Logger

	relocateOnDrift bool
	minConfidence   float64
	maxSuggestions  int
}

// New validates the document accessors and the tool registry and builds an
// idle engine.
func New(opts Options) (*Engine, error) {
	if opts.GetDocument == nil || opts.SetDocument == nil {
		return nil, errors.New("engine requires both document accessors")
	}
	registry := opts.Registry
	if registry == nil {
		registry = tools.DefaultRegistry()
	}
	if err := registry.ValidateRequired(tools.RequiredTools...); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		getDoc:   opts.GetDocument,
		setDoc:   opts.SetDocument,
		store:    store.New(),
		undoMgr:  undo.NewManager(opts.UndoLimit, log),
		registry: registry,
		session:  lifecycle.NewSessionContext(),
		tracked:  make(map[string]lifecycle.TrackedSuggestion),
		log:      log,

		relocateOnDrift: opts.RelocateOnDrift == nil || *opts.RelocateOnDrift,
		minConfidence:   opts.MinConfidence,
		maxSuggestions:  opts.MaxSuggestions,
	}
	e.executor = tools.NewExecutor(registry, e.toolContext, opts.ToolTimeout, log)
	return e, nil
}

// toolContext snapshots the document and store for one tool call. Built
// fresh per call so concurrent external edits are observed, never stale.
func (e *Engine) toolContext() *tools.Context {
	return &tools.Context{
		Doc:   document.NewSnapshot(e.getDoc()),
		Store: e.store.State(),
	}
}

// Store exposes the suggestion store for subscribers and selectors.
func (e *Engine) Store() *store.Store { return e.store }

// Registry exposes the tool registry (for schema export to the agent).
func (e *Engine) Registry() *tools.Registry { return e.registry }

// Session returns the current session context.
func (e *Engine) Session() lifecycle.SessionContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Tracked returns the lifecycle record for one suggestion.
func (e *Engine) Tracked(id string) (lifecycle.TrackedSuggestion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts, ok := e.tracked[id]
	return ts, ok
}

// Suggestions returns the stored suggestions sorted by position.
func (e *Engine) Suggestions() []highlight.Suggestion {
	return store.SelectAll(e.store.State())
}

// CanUndo reports whether an accept/dismiss can be undone.
func (e *Engine) CanUndo() bool { return e.undoMgr.CanUndo() }

// CanRedo reports whether an undone accept/dismiss can be redone.
func (e *Engine) CanRedo() bool { return e.undoMgr.CanRedo() }

// StartReview moves the session into reviewing. The caller then feeds the
// agent's tool calls through RunToolCalls.
func (e *Engine) StartReview() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.State != lifecycle.SessionIdle {
		return fmt.Errorf("cannot start a review while %s", e.session.State)
	}
	e.transition(lifecycle.RequestReview{})
	return nil
}

// CancelReview abandons an in-flight review.
func (e *Engine) CancelReview() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.State != lifecycle.SessionReviewing {
		return fmt.Errorf("no review to cancel while %s", e.session.State)
	}
	e.transition(lifecycle.CancelReview{})
	return nil
}

// FailReview records an upstream agent failure.
func (e *Engine) FailReview(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(lifecycle.ReviewFailed{Err: err})
}

// Recover returns an errored session to idle.
func (e *Engine) Recover() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(lifecycle.Recover{})
}

// RunToolCalls executes the agent's calls strictly in order. Successful
// highlight_text results are inserted into the store and tracked as pending;
// a successful finish_review completes the session. The returned batch
// reflects post-insertion outcomes: a highlight the store rejected for
// overlap comes back as a failure.
func (e *Engine) RunToolCalls(ctx context.Context, calls []tools.Call) tools.BatchResult {
	started := time.Now()
	var batch tools.BatchResult
	for _, call := range calls {
		res := e.executor.Execute(ctx, call)
		if res.Result.OK {
			res = e.applyToolResult(call, res)
		}
		batch.Results = append(batch.Results, res)
		if res.Result.OK {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Duration = time.Since(started)
	return batch
}

// applyToolResult performs the state changes a successful tool call implies.
func (e *Engine) applyToolResult(call tools.Call, res tools.CallResult) tools.CallResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch call.Name {
	case "highlight_text":
		sug, ok := res.Result.Value.(highlight.Suggestion)
		if !ok {
			res.Result = tools.Failure(tools.CodeExecutionError, false,
				"highlight_text returned %T, not a suggestion", res.Result.Value)
			return res
		}
		if e.minConfidence > 0 && sug.Confidence != nil && *sug.Confidence < e.minConfidence {
			res.Result = tools.Failure(tools.CodeInvalidParams, true,
				"confidence %.2f below the session threshold %.2f", *sug.Confidence, e.minConfidence)
			return res
		}
		if e.maxSuggestions > 0 && store.SelectCount(e.store.State()) >= e.maxSuggestions {
			res.Result = tools.Failure(tools.CodeInvalidParams, false,
				"suggestion limit of %d reached for this review", e.maxSuggestions)
			return res
		}
		next, _ := e.store.Dispatch(store.Add{Item: sug})
		for _, rejectedID := range next.LastRejectedIDs {
			if rejectedID == sug.ID {
				res.Result = tools.Failure(tools.CodeInvalidParams, true,
					"span %s overlaps an existing suggestion", sug.Range)
				return res
			}
		}
		e.tracked[sug.ID] = lifecycle.NewTracked(sug.ID)
		e.log.Info("suggestion proposed",
			zap.String("id", sug.ID),
			zap.String("category", string(sug.Category)),
			zap.String("range", sug.Range.String()))

	case "finish_review":
		count := store.SelectCount(e.store.State())
		for id, ts := range e.tracked {
			e.tracked[id] = ts.Apply(lifecycle.EventReviewComplete)
		}
		e.transition(lifecycle.ReviewComplete{SuggestionCount: count})
	}
	return res
}

// Activate focuses a suggestion.
func (e *Engine) Activate(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.store.State()
	if !store.SelectHas(st, id) {
		return fmt.Errorf("suggestion %s not found", id)
	}
	if prev := st.ActiveID; prev != "" && prev != id {
		if ts, ok := e.tracked[prev]; ok {
			e.tracked[prev] = ts.Apply(lifecycle.EventUserDeactivates)
		}
	}
	e.store.Dispatch(store.SetActive{ID: id})
	if ts, ok := e.tracked[id]; ok {
		e.tracked[id] = ts.Apply(lifecycle.EventUserActivates)
	}
	return nil
}

// Deactivate removes focus from the active suggestion.
func (e *Engine) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.store.State()
	if st.ActiveID == "" {
		return
	}
	if ts, ok := e.tracked[st.ActiveID]; ok {
		e.tracked[st.ActiveID] = ts.Apply(lifecycle.EventUserDeactivates)
	}
	e.store.Dispatch(store.SetActive{ID: ""})
}

// Accept applies a suggestion's revision to the document through an
// undoable command.
func (e *Engine) Accept(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sug, ok := store.SelectByID(e.store.State(), id)
	if !ok {
		return fmt.Errorf("suggestion %s not found", id)
	}

	e.transition(lifecycle.AcceptSuggestion{ID: id})

	if ts, ok := e.tracked[id]; ok {
		ts = ts.Apply(lifecycle.EventUserActivates)
		e.tracked[id] = ts.Apply(lifecycle.EventUserAccepts)
	}

	cmd := undo.NewAcceptSuggestion(sug, e.store, e.getDoc, e.setDoc)
	cmd.OnApply = func() {
		if ts, ok := e.tracked[id]; ok {
			e.tracked[id] = ts.Apply(lifecycle.EventTextApplied)
		}
	}
	if err := e.undoMgr.Execute(cmd); err != nil {
		if ts, ok := e.tracked[id]; ok {
			// The accept never landed; put the record back in play.
			ts.State = lifecycle.StateActive
			e.tracked[id] = ts
		}
		e.transition(lifecycle.ApplyFailed{Err: err})
		return err
	}

	e.transition(lifecycle.ApplyComplete{Remaining: store.SelectCount(e.store.State())})
	return nil
}

// Dismiss removes a suggestion without touching the document.
func (e *Engine) Dismiss(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !store.SelectHas(e.store.State(), id) {
		return fmt.Errorf("suggestion %s not found", id)
	}
	cmd := undo.NewDismissSuggestion(id, e.store)
	if err := e.undoMgr.Execute(cmd); err != nil {
		return err
	}
	if ts, ok := e.tracked[id]; ok {
		e.tracked[id] = ts.Apply(lifecycle.EventUserDismisses)
	}
	remaining := store.SelectCount(e.store.State())
	e.transition(lifecycle.DismissSuggestion{ID: id, Remaining: remaining})
	return nil
}

// DismissAll removes every suggestion as one undoable command.
func (e *Engine) DismissAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd := undo.NewDismissAllSuggestions(e.store)
	if err := e.undoMgr.Execute(cmd); err != nil {
		return err
	}
	for id, ts := range e.tracked {
		e.tracked[id] = ts.Apply(lifecycle.EventUserDismisses)
	}
	e.transition(lifecycle.DismissAll{})
	return nil
}

// Undo reverses the most recent accept/dismiss, byte-exactly.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.undoMgr.Undo(); err != nil {
		return err
	}
	e.resync()
	return nil
}

// Redo re-applies the most recently undone accept/dismiss.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.undoMgr.Redo(); err != nil {
		return err
	}
	e.resync()
	return nil
}

// ApplyTextEdit tells the engine the document changed: deleteCount
// characters at editStart were replaced by insertLength characters. The
// caller has already applied the edit to the document itself. Every stored
// span is remapped; survivors whose spans moved are revalidated against the
// live text and dropped if their original text is gone.
func (e *Engine) ApplyTextEdit(editStart, deleteCount, insertLength int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.State == lifecycle.SessionHasSuggestions {
		e.transition(lifecycle.TextEdited{
			EditStart:    editStart,
			DeleteCount:  deleteCount,
			InsertLength: insertLength,
		})
		return
	}
	e.updatePositions(editStart, deleteCount, insertLength)
}

// transition runs the session machine and interprets its side effects.
func (e *Engine) transition(event lifecycle.SessionEvent) {
	next, effects := lifecycle.SessionTransition(e.session, event)
	if next.State != e.session.State {
		e.log.Info("session transition",
			zap.String("from", string(e.session.State)),
			zap.String("to", string(next.State)))
	}
	e.session = next
	for _, effect := range effects {
		e.perform(effect)
	}
}

// perform interprets one side-effect descriptor.
func (e *Engine) perform(effect lifecycle.SideEffect) {
	switch eff := effect.(type) {
	case lifecycle.EffectStartReview:
		// The caller drives the agent; nothing to do in-process.
	case lifecycle.EffectCancelReview:
		e.store.Dispatch(store.RemoveAll{})
		e.tracked = make(map[string]lifecycle.TrackedSuggestion)
	case lifecycle.EffectApplySuggestion:
		// Accept() executes the command itself so the error can surface
		// to the caller; the descriptor is informational here.
	case lifecycle.EffectRemoveSuggestion:
		// Dismiss() already ran the removal through the undo manager.
	case lifecycle.EffectClearAllSuggestions:
		if store.SelectCount(e.store.State()) > 0 {
			e.store.Dispatch(store.RemoveAll{})
		}
	case lifecycle.EffectUpdatePositions:
		e.updatePositions(eff.EditStart, eff.DeleteCount, eff.InsertLength)
	case lifecycle.EffectLogError:
		e.log.Error("session error", zap.Error(eff.Err))
	}
}

// updatePositions remaps every span and revalidates the survivors.
func (e *Engine) updatePositions(editStart, deleteCount, insertLength int) {
	before := e.store.State()
	after, changed := e.store.Dispatch(store.ApplyEdit{
		EditStart:    editStart,
		DeleteCount:  deleteCount,
		InsertLength: insertLength,
	})
	if !changed {
		return
	}

	// Anything the edit swallowed is invalid beyond repair.
	for id := range e.tracked {
		if store.SelectHas(before, id) && !store.SelectHas(after, id) {
			e.tracked[id] = e.tracked[id].Apply(lifecycle.EventTextEdit).Apply(lifecycle.EventTextChangedTooMuch)
			e.log.Info("suggestion invalidated by edit", zap.String("id", id))
		}
	}

	content := e.getDoc()
	for _, sug := range store.SelectAll(after) {
		prev, _ := store.SelectByID(before, sug.ID)
		if prev.Range == sug.Range {
			continue
		}
		if ts, ok := e.tracked[sug.ID]; ok {
			e.tracked[sug.ID] = ts.Apply(lifecycle.EventTextEdit)
		}
		e.revalidate(content, sug)
	}

	if store.SelectCount(e.store.State()) == 0 && e.session.State == lifecycle.SessionHasSuggestions {
		e.transition(lifecycle.ClearAll{})
	}
}

// revalidate confirms a moved span still covers its original text, repairs
// it if the text slid elsewhere, and drops the suggestion when it is gone.
func (e *Engine) revalidate(content string, sug highlight.Suggestion) {
	if sub := slice(content, sug.Range.Start, sug.Range.End); sub == sug.OriginalText {
		if ts, ok := e.tracked[sug.ID]; ok {
			e.tracked[sug.ID] = ts.Apply(lifecycle.EventValidationSuccess)
		}
		return
	}

	if e.relocateOnDrift {
		if idx := strings.Index(content, sug.OriginalText); idx >= 0 {
			moved := sug.WithRange(textrange.MustNew(idx, idx+len(sug.OriginalText)))
			next, _ := e.store.Dispatch(store.UpdateHighlight{ID: sug.ID, To: moved})
			if len(next.LastRejectedIDs) == 0 {
				if ts, ok := e.tracked[sug.ID]; ok {
					e.tracked[sug.ID] = ts.Apply(lifecycle.EventValidationSuccess)
				}
				return
			}
		}
	}

	e.store.Dispatch(store.Remove{ID: sug.ID})
	if ts, ok := e.tracked[sug.ID]; ok {
		e.tracked[sug.ID] = ts.Apply(lifecycle.EventValidationFailure)
	}
	e.log.Info("suggestion invalidated", zap.String("id", sug.ID))
}

// resync reconciles session and lifecycle records with the store after an
// undo/redo reinstated or re-removed suggestions outside the machines'
// event flow.
func (e *Engine) resync() {
	st := e.store.State()
	count := store.SelectCount(st)

	for _, sug := range store.SelectAll(st) {
		ts, ok := e.tracked[sug.ID]
		if !ok || ts.State.IsTerminal() {
			fresh := lifecycle.NewTracked(sug.ID)
			e.tracked[sug.ID] = fresh.Apply(lifecycle.EventReviewComplete)
		}
	}
	for id := range e.tracked {
		if !store.SelectHas(st, id) && !e.tracked[id].State.IsTerminal() {
			delete(e.tracked, id)
		}
	}

	if count > 0 && e.session.State == lifecycle.SessionIdle {
		e.session = lifecycle.SessionContext{
			State:            lifecycle.SessionHasSuggestions,
			LastTransitionAt: time.Now(),
		}
	}
	if count == 0 && e.session.State == lifecycle.SessionHasSuggestions {
		e.session = lifecycle.SessionContext{
			State:            lifecycle.SessionIdle,
			LastTransitionAt: time.Now(),
		}
	}
}

func slice(content string, start, end int) string {
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return content[start:end]
}
