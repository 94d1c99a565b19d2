package lifecycle

import "testing"

func TestTransition_PendingAcceptsOnlyTwoEvents(t *testing.T) {
	if got := Transition(StatePending, EventReviewComplete); got != StateReady {
		t.Errorf("PENDING + review_complete = %s", got)
	}
	if got := Transition(StatePending, EventUserDismisses); got != StateDismissed {
		t.Errorf("PENDING + user_dismisses = %s", got)
	}
	others := []SuggestionEvent{
		EventUserActivates, EventUserDeactivates, EventUserAccepts,
		EventTextEdit, EventValidationSuccess, EventValidationFailure,
		EventTextChangedTooMuch, EventTextApplied,
	}
	for _, ev := range others {
		if got := Transition(StatePending, ev); got != StatePending {
			t.Errorf("PENDING + %s = %s, want no-op", ev, got)
		}
	}
}

func TestTransition_ActivationStates(t *testing.T) {
	for _, s := range []SuggestionState{StateReady, StateInactive, StateValidated} {
		if got := Transition(s, EventUserActivates); got != StateActive {
			t.Errorf("%s + user_activates = %s", s, got)
		}
		if got := Transition(s, EventTextEdit); got != StateAdjusted {
			t.Errorf("%s + text_edit = %s", s, got)
		}
		if got := Transition(s, EventUserDismisses); got != StateDismissed {
			t.Errorf("%s + user_dismisses = %s", s, got)
		}
	}
}

func TestTransition_Active(t *testing.T) {
	if got := Transition(StateActive, EventUserDeactivates); got != StateInactive {
		t.Errorf("ACTIVE + user_deactivates = %s", got)
	}
	if got := Transition(StateActive, EventUserAccepts); got != StateAccepted {
		t.Errorf("ACTIVE + user_accepts = %s", got)
	}
	if got := Transition(StateActive, EventTextEdit); got != StateAdjusted {
		t.Errorf("ACTIVE + text_edit = %s", got)
	}
}

func TestTransition_AdjustedValidation(t *testing.T) {
	if got := Transition(StateAdjusted, EventValidationSuccess); got != StateValidated {
		t.Errorf("ADJUSTED + validation_success = %s", got)
	}
	if got := Transition(StateAdjusted, EventValidationFailure); got != StateInvalidated {
		t.Errorf("ADJUSTED + validation_failure = %s", got)
	}
	if got := Transition(StateAdjusted, EventTextChangedTooMuch); got != StateInvalidated {
		t.Errorf("ADJUSTED + text_changed_too_much = %s", got)
	}
	// Acceptance is not offered while adjusted.
	if got := Transition(StateAdjusted, EventUserAccepts); got != StateAdjusted {
		t.Errorf("ADJUSTED + user_accepts = %s, want no-op", got)
	}
}

func TestTransition_AcceptedToCompleted(t *testing.T) {
	if got := Transition(StateAccepted, EventTextApplied); got != StateCompleted {
		t.Errorf("ACCEPTED + text_applied = %s", got)
	}
}

func TestTransition_TerminalStatesAcceptNothing(t *testing.T) {
	all := []SuggestionEvent{
		EventReviewComplete, EventUserActivates, EventUserDeactivates,
		EventUserAccepts, EventUserDismisses, EventTextEdit,
		EventValidationSuccess, EventValidationFailure,
		EventTextChangedTooMuch, EventTextApplied,
	}
	for _, s := range []SuggestionState{StateCompleted, StateDismissed, StateInvalidated} {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
		for _, ev := range all {
			if got := Transition(s, ev); got != s {
				t.Errorf("%s + %s = %s, want no-op", s, ev, got)
			}
		}
	}
}

func TestValidateTransition_Strict(t *testing.T) {
	next, err := ValidateTransition(StatePending, EventReviewComplete)
	if err != nil || next != StateReady {
		t.Errorf("ValidateTransition = %s, %v", next, err)
	}
	next, err = ValidateTransition(StateCompleted, EventUserActivates)
	if err == nil {
		t.Fatal("Expected error for terminal-state event")
	}
	if next != StateCompleted {
		t.Errorf("Failed validation must return the unchanged state, got %s", next)
	}
	te, ok := err.(*TransitionError)
	if !ok {
		t.Fatalf("Expected *TransitionError, got %T", err)
	}
	if te.State != StateCompleted || te.Event != EventUserActivates {
		t.Errorf("TransitionError = %+v", te)
	}
}

func TestTracked_ApplyRecordsPreviousState(t *testing.T) {
	ts := NewTracked("s1")
	if ts.State != StatePending {
		t.Fatalf("Initial state = %s", ts.State)
	}
	ts = ts.Apply(EventReviewComplete)
	if ts.State != StateReady || ts.PreviousState != StatePending {
		t.Errorf("After review_complete: %+v", ts)
	}
	entered := ts.StateEnteredAt
	// No-op event leaves the record untouched.
	noop := ts.Apply(EventTextApplied)
	if noop.State != StateReady || !noop.StateEnteredAt.Equal(entered) {
		t.Error("No-op event must not rewrite the tracked record")
	}
}
