// Package lifecycle implements the two state machines governing review
// sessions: a per-suggestion machine tracking one suggestion from proposal
// to resolution, and a session machine tracking the whole review. Both are
// pure: transitions compute new states (plus, for the session machine,
// side-effect descriptors) and never touch the store or the document.
package lifecycle

import (
	"fmt"
	"time"
)

// SuggestionState is a suggestion's position in its lifecycle.
type SuggestionState string

const (
	StatePending     SuggestionState = "pending"     // proposed, awaiting review completion
	StateReady       SuggestionState = "ready"       // reviewable, not under the cursor
	StateActive      SuggestionState = "active"      // focused by the user
	StateInactive    SuggestionState = "inactive"    // previously active, focus moved away
	StateAdjusted    SuggestionState = "adjusted"    // span moved by a text edit, revalidation due
	StateValidated   SuggestionState = "validated"   // revalidation confirmed the span
	StateInvalidated SuggestionState = "invalidated" // drifted beyond repair; terminal
	StateAccepted    SuggestionState = "accepted"    // user accepted, text application pending
	StateCompleted   SuggestionState = "completed"   // revision applied; terminal
	StateDismissed   SuggestionState = "dismissed"   // user rejected; terminal
)

// IsTerminal reports whether s accepts no further events.
func (s SuggestionState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateDismissed, StateInvalidated:
		return true
	}
	return false
}

// SuggestionEvent drives the suggestion machine.
type SuggestionEvent string

const (
	EventReviewComplete     SuggestionEvent = "review_complete"
	EventUserActivates      SuggestionEvent = "user_activates"
	EventUserDeactivates    SuggestionEvent = "user_deactivates"
	EventUserAccepts        SuggestionEvent = "user_accepts"
	EventUserDismisses      SuggestionEvent = "user_dismisses"
	EventTextEdit           SuggestionEvent = "text_edit"
	EventValidationSuccess  SuggestionEvent = "validation_success"
	EventValidationFailure  SuggestionEvent = "validation_failure"
	EventTextChangedTooMuch SuggestionEvent = "text_changed_too_much"
	EventTextApplied        SuggestionEvent = "text_applied"
)

// TransitionError reports an event that is undefined for the current state.
// Only the strict Validate entry points produce it; Transition itself treats
// undefined pairs as no-ops.
type TransitionError struct {
	State SuggestionState
	Event SuggestionEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid in state %q", e.Event, e.State)
}

// Transition returns the state reached from s on event. Undefined pairs
// return s unchanged.
func Transition(s SuggestionState, event SuggestionEvent) SuggestionState {
	next, ok := transition(s, event)
	if !ok {
		return s
	}
	return next
}

// ValidateTransition is the strict variant: undefined pairs return a
// *TransitionError instead of no-opping.
func ValidateTransition(s SuggestionState, event SuggestionEvent) (SuggestionState, error) {
	next, ok := transition(s, event)
	if !ok {
		return s, &TransitionError{State: s, Event: event}
	}
	return next, nil
}

func transition(s SuggestionState, event SuggestionEvent) (SuggestionState, bool) {
	switch s {
	case StatePending:
		switch event {
		case EventReviewComplete:
			return StateReady, true
		case EventUserDismisses:
			return StateDismissed, true
		}

	case StateReady, StateInactive, StateValidated:
		switch event {
		case EventUserActivates:
			return StateActive, true
		case EventTextEdit:
			return StateAdjusted, true
		case EventUserDismisses:
			return StateDismissed, true
		}

	case StateActive:
		switch event {
		case EventUserDeactivates:
			return StateInactive, true
		case EventUserAccepts:
			return StateAccepted, true
		case EventTextEdit:
			return StateAdjusted, true
		case EventUserDismisses:
			return StateDismissed, true
		}

	case StateAdjusted:
		switch event {
		case EventValidationSuccess:
			return StateValidated, true
		case EventValidationFailure, EventTextChangedTooMuch:
			return StateInvalidated, true
		case EventUserDismisses:
			return StateDismissed, true
		}

	case StateAccepted:
		switch event {
		case EventTextApplied:
			return StateCompleted, true
		}

	case StateCompleted, StateDismissed, StateInvalidated:
		// Terminal: no events accepted.
	}
	return s, false
}

// TrackedSuggestion is the externally observable projection of one
// suggestion's machine: current state, when it was entered, and the state
// it came from.
type TrackedSuggestion struct {
	ID             string
	State          SuggestionState
	PreviousState  SuggestionState
	StateEnteredAt time.Time
}

// NewTracked starts tracking a suggestion in the pending state.
func NewTracked(id string) TrackedSuggestion {
	return TrackedSuggestion{
		ID:             id,
		State:          StatePending,
		StateEnteredAt: time.Now(),
	}
}

// Apply advances the tracked suggestion by event. A no-op transition leaves
// the record untouched (StateEnteredAt included).
func (ts TrackedSuggestion) Apply(event SuggestionEvent) TrackedSuggestion {
	next := Transition(ts.State, event)
	if next == ts.State {
		return ts
	}
	ts.PreviousState = ts.State
	ts.State = next
	ts.StateEnteredAt = time.Now()
	return ts
}
