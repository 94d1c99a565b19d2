// Package store holds the engine's suggestion state behind a pure reducer.
// Every mutation is an Action; the reducer either returns the input state
// untouched (a true no-op, reference-equal) or a new state with Version
// bumped by exactly one. The Store type wraps the reducer with
// subscribe/notify for callers outside a reactive UI loop.
package store

import (
	"sync"

	"github.com/kvit-s/redline/internal/highlight"
)

// State is the complete suggestion state. States are immutable once built:
// the reducer never mutates a published state's index, so states may be
// shared and snapshotted without copying.
type State struct {
	Highlights      *highlight.Index
	ActiveID        string // empty when no suggestion is active
	Version         uint64
	LastRejectedIDs []string
}

// NewState returns the empty initial state.
func NewState() State {
	return State{Highlights: highlight.NewIndex()}
}

// Action is a request to change the state. The concrete types below are the
// only implementations.
type Action interface {
	isAction()
}

// SetAll bulk-replaces the held suggestions via the keep-first strategy,
// recording the ids of any inputs rejected for overlap.
type SetAll struct {
	Items []highlight.Suggestion
}

// Add inserts one suggestion. On overlap it is excluded and reported via
// LastRejectedIDs rather than failing the dispatch.
type Add struct {
	Item highlight.Suggestion
}

// Remove deletes one suggestion by id. Unknown ids are a no-op.
type Remove struct {
	ID string
}

// RemoveAll clears every suggestion.
type RemoveAll struct{}

// SetActive marks one suggestion active. An empty ID clears the active
// suggestion; an unknown id or the already-active id is a no-op.
type SetActive struct {
	ID string
}

// ApplyEdit maps every stored range through a document splice.
type ApplyEdit struct {
	EditStart    int
	DeleteCount  int
	InsertLength int
}

// UpdateHighlight replaces the suggestion with ID by To (which must carry the
// same id). A range-changing update is re-checked for overlap against the
// rest of the index and excluded on conflict.
type UpdateHighlight struct {
	ID string
	To highlight.Suggestion
}

// Restore replaces the state wholesale. Used by undo to reinstate an exact
// snapshot, version included.
type Restore struct {
	State State
}

func (SetAll) isAction()          {}
func (Add) isAction()             {}
func (Remove) isAction()          {}
func (RemoveAll) isAction()       {}
func (SetActive) isAction()       {}
func (ApplyEdit) isAction()       {}
func (UpdateHighlight) isAction() {}
func (Restore) isAction()         {}

// Reduce applies action to state. The returned state is the input itself for
// no-ops; otherwise a fresh state with Version = state.Version + 1 (except
// Restore, which reinstates the given snapshot verbatim).
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetAll:
		ix, rejected, err := highlight.FromSlice(a.Items, highlight.KeepFirst)
		if err != nil {
			return state
		}
		next := State{
			Highlights:      ix,
			Version:         state.Version + 1,
			LastRejectedIDs: ids(rejected),
		}
		if state.ActiveID != "" && ix.Has(state.ActiveID) {
			next.ActiveID = state.ActiveID
		}
		return next

	case Add:
		next := state
		next.Highlights = state.Highlights.Clone()
		if err := next.Highlights.Add(a.Item); err != nil {
			next.Highlights = state.Highlights
			next.LastRejectedIDs = []string{a.Item.ID}
		} else {
			next.LastRejectedIDs = nil
		}
		next.Version = state.Version + 1
		return next

	case Remove:
		if !state.Highlights.Has(a.ID) {
			return state
		}
		next := state
		next.Highlights = state.Highlights.Clone()
		next.Highlights.Delete(a.ID)
		if next.ActiveID == a.ID {
			next.ActiveID = ""
		}
		next.LastRejectedIDs = nil
		next.Version = state.Version + 1
		return next

	case RemoveAll:
		if state.Highlights.Len() == 0 {
			return state
		}
		return State{
			Highlights: highlight.NewIndex(),
			Version:    state.Version + 1,
		}

	case SetActive:
		if a.ID == state.ActiveID {
			return state
		}
		if a.ID != "" && !state.Highlights.Has(a.ID) {
			return state
		}
		next := state
		next.ActiveID = a.ID
		next.Version = state.Version + 1
		return next

	case ApplyEdit:
		ix := state.Highlights.Clone()
		dropped, changed := ix.ApplyEdit(a.EditStart, a.DeleteCount, a.InsertLength)
		if !changed {
			return state
		}
		next := state
		next.Highlights = ix
		next.LastRejectedIDs = nil
		for _, id := range dropped {
			if id == next.ActiveID {
				next.ActiveID = ""
			}
		}
		next.Version = state.Version + 1
		return next

	case UpdateHighlight:
		old, ok := state.Highlights.Get(a.ID)
		if !ok || a.To.ID != a.ID {
			return state
		}
		next := state
		if a.To.Range != old.Range {
			ix := state.Highlights.Clone()
			ix.Delete(a.ID)
			if err := ix.Add(a.To); err != nil {
				next.LastRejectedIDs = []string{a.ID}
				next.Version = state.Version + 1
				return next
			}
			next.Highlights = ix
		} else {
			items := make([]highlight.Suggestion, 0, state.Highlights.Len())
			for _, s := range state.Highlights.All() {
				if s.ID == a.ID {
					items = append(items, a.To)
				} else {
					items = append(items, s)
				}
			}
			ix, _, err := highlight.FromSlice(items, highlight.KeepFirst)
			if err != nil {
				return state
			}
			next.Highlights = ix
		}
		next.LastRejectedIDs = nil
		next.Version = state.Version + 1
		return next

	case Restore:
		return a.State
	}
	return state
}

func ids(items []highlight.Suggestion) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.ID
	}
	return out
}

// Listener observes every effective state change.
type Listener func(State)

// Store serializes dispatches against a single State and notifies listeners
// on effective changes. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextSub   int
}

// New creates a store holding the empty initial state.
func New() *Store {
	return &Store{
		state:     NewState(),
		listeners: make(map[int]Listener),
	}
}

// State returns the current state. The returned value shares the index with
// the store; treat it as read-only.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch runs action through the reducer. It returns the resulting state
// and whether the dispatch changed anything. Listeners run synchronously on
// effective changes.
func (s *Store) Dispatch(action Action) (State, bool) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, action)
	changed := next.Version != prev.Version || !sameState(prev, next)
	s.state = next
	var toNotify []Listener
	if changed {
		for _, l := range s.listeners {
			toNotify = append(toNotify, l)
		}
	}
	s.mu.Unlock()

	for _, l := range toNotify {
		l(next)
	}
	return next, changed
}

// Subscribe registers a listener and returns an unsubscribe function.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// sameState catches the one changed-state case Version cannot: Restore to a
// snapshot with an identical version but different content.
func sameState(a, b State) bool {
	return a.Highlights == b.Highlights && a.ActiveID == b.ActiveID && a.Version == b.Version
}
