package lifecycle

import "time"

// SessionState is the review session's position in its lifecycle.
type SessionState string

const (
	SessionIdle           SessionState = "idle"
	SessionReviewing      SessionState = "reviewing"
	SessionHasSuggestions SessionState = "has_suggestions"
	SessionApplying       SessionState = "applying"
	SessionError          SessionState = "error"
)

// SessionEvent drives the session machine. Events carry their payloads; the
// machine reads them but performs nothing.
type SessionEvent interface {
	isSessionEvent()
}

type RequestReview struct{}
type ReviewComplete struct{ SuggestionCount int }
type ReviewFailed struct{ Err error }
type CancelReview struct{}
type AcceptSuggestion struct{ ID string }
type DismissSuggestion struct {
	ID        string
	Remaining int // suggestions left after this dismissal
}
type DismissAll struct{}
type ApplyComplete struct{ Remaining int }
type ApplyFailed struct{ Err error }
type TextEdited struct {
	EditStart    int
	DeleteCount  int
	InsertLength int
}
type Recover struct{}
type ClearAll struct{}

func (RequestReview) isSessionEvent()     {}
func (ReviewComplete) isSessionEvent()    {}
func (ReviewFailed) isSessionEvent()      {}
func (CancelReview) isSessionEvent()      {}
func (AcceptSuggestion) isSessionEvent()  {}
func (DismissSuggestion) isSessionEvent() {}
func (DismissAll) isSessionEvent()        {}
func (ApplyComplete) isSessionEvent()     {}
func (ApplyFailed) isSessionEvent()       {}
func (TextEdited) isSessionEvent()        {}
func (Recover) isSessionEvent()           {}
func (ClearAll) isSessionEvent()          {}

// SideEffect describes work the caller must perform after a transition.
// Effects are plain data; the machine never executes them. This keeps the
// machine unit-testable and the effect handler swappable.
type SideEffect interface {
	isSideEffect()
}

type EffectStartReview struct{}
type EffectCancelReview struct{}
type EffectApplySuggestion struct{ ID string }
type EffectRemoveSuggestion struct{ ID string }
type EffectClearAllSuggestions struct{}
type EffectUpdatePositions struct {
	EditStart    int
	DeleteCount  int
	InsertLength int
}
type EffectLogError struct{ Err error }

func (EffectStartReview) isSideEffect()         {}
func (EffectCancelReview) isSideEffect()        {}
func (EffectApplySuggestion) isSideEffect()     {}
func (EffectRemoveSuggestion) isSideEffect()    {}
func (EffectClearAllSuggestions) isSideEffect() {}
func (EffectUpdatePositions) isSideEffect()     {}
func (EffectLogError) isSideEffect()            {}

// SessionContext is the externally observable projection of the session
// machine.
type SessionContext struct {
	State            SessionState
	ErrorMessage     string
	IsProcessing     bool
	LastTransitionAt time.Time
}

// NewSessionContext returns the idle initial context.
func NewSessionContext() SessionContext {
	return SessionContext{State: SessionIdle, LastTransitionAt: time.Now()}
}

// SessionTransition computes the next context and the side effects the
// caller must perform. Undefined (state, event) pairs return the input
// context unchanged with no effects.
func SessionTransition(ctx SessionContext, event SessionEvent) (SessionContext, []SideEffect) {
	next, effects, ok := sessionTransition(ctx.State, event)
	if !ok {
		return ctx, nil
	}
	out := SessionContext{
		State:            next,
		LastTransitionAt: time.Now(),
		IsProcessing:     next == SessionReviewing || next == SessionApplying,
	}
	if next == SessionError {
		out.ErrorMessage = errorMessage(event)
	}
	return out, effects
}

func sessionTransition(s SessionState, event SessionEvent) (SessionState, []SideEffect, bool) {
	switch s {
	case SessionIdle:
		switch event.(type) {
		case RequestReview:
			return SessionReviewing, []SideEffect{EffectStartReview{}}, true
		}

	case SessionReviewing:
		switch e := event.(type) {
		case ReviewComplete:
			if e.SuggestionCount > 0 {
				return SessionHasSuggestions, nil, true
			}
			return SessionIdle, nil, true
		case ReviewFailed:
			return SessionError, []SideEffect{EffectLogError{Err: e.Err}}, true
		case CancelReview:
			return SessionIdle, []SideEffect{EffectCancelReview{}}, true
		}

	case SessionHasSuggestions:
		switch e := event.(type) {
		case AcceptSuggestion:
			return SessionApplying, []SideEffect{EffectApplySuggestion{ID: e.ID}}, true
		case DismissSuggestion:
			effects := []SideEffect{EffectRemoveSuggestion{ID: e.ID}}
			if e.Remaining <= 0 {
				return SessionIdle, effects, true
			}
			return SessionHasSuggestions, effects, true
		case DismissAll, ClearAll:
			return SessionIdle, []SideEffect{EffectClearAllSuggestions{}}, true
		case TextEdited:
			return SessionHasSuggestions, []SideEffect{EffectUpdatePositions{
				EditStart:    e.EditStart,
				DeleteCount:  e.DeleteCount,
				InsertLength: e.InsertLength,
			}}, true
		}

	case SessionApplying:
		switch e := event.(type) {
		case ApplyComplete:
			if e.Remaining > 0 {
				return SessionHasSuggestions, nil, true
			}
			return SessionIdle, nil, true
		case ApplyFailed:
			return SessionError, []SideEffect{EffectLogError{Err: e.Err}}, true
		}

	case SessionError:
		switch event.(type) {
		case Recover:
			return SessionIdle, nil, true
		case ClearAll:
			return SessionIdle, []SideEffect{EffectClearAllSuggestions{}}, true
		}
	}
	return s, nil, false
}

func errorMessage(event SessionEvent) string {
	switch e := event.(type) {
	case ReviewFailed:
		if e.Err != nil {
			return e.Err.Error()
		}
	case ApplyFailed:
		if e.Err != nil {
			return e.Err.Error()
		}
	}
	return ""
}
