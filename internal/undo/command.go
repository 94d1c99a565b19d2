// Package undo implements reversible accept/dismiss operations over the
// suggestion store and the bounded undo/redo stacks that manage them.
//
// Commands re-read the live document through the injected accessor
// immediately before acting, so edits made between execute and undo are
// observed rather than clobbered. Undo restores the exact pre-execute store
// snapshot, not a recomputation.
package undo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kvit-s/redline/internal/document"
	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/store"
)

// Command is a reversible unit of work.
type Command interface {
	ID() string
	Type() string
	Description() string
	CreatedAt() time.Time
	GroupID() string
	Tags() []string
	Execute() error
	Undo() error
}

// Meta carries the bookkeeping every command shares.
type Meta struct {
	CommandID   string
	CommandType string
	Desc        string
	Created     time.Time
	Group       string
	TagList     []string
}

func newMeta(commandType, description string) Meta {
	return Meta{
		CommandID:   uuid.NewString(),
		CommandType: commandType,
		Desc:        description,
		Created:     time.Now(),
	}
}

func (m *Meta) ID() string           { return m.CommandID }
func (m *Meta) Type() string         { return m.CommandType }
func (m *Meta) Description() string  { return m.Desc }
func (m *Meta) CreatedAt() time.Time { return m.Created }
func (m *Meta) GroupID() string      { return m.Group }
func (m *Meta) Tags() []string       { return m.TagList }

// relocateWindow bounds the positional search around a stale offset before
// falling back to a whole-document scan.
const relocateWindow = 256

// locate finds needle in content, preferring the position hint: exact match
// at the hint first, then a bounded forward search, then a bounded backward
// search, then a global scan. Returns -1 when the text is gone.
func locate(content, needle string, hint int) int {
	if needle == "" {
		return -1
	}
	n := len(needle)
	if hint >= 0 && hint+n <= len(content) && content[hint:hint+n] == needle {
		return hint
	}

	// Forward within the window.
	if hint >= 0 && hint < len(content) {
		end := hint + relocateWindow + n
		if end > len(content) {
			end = len(content)
		}
		if idx := strings.Index(content[hint:end], needle); idx >= 0 {
			return hint + idx
		}
		// Backward within the window.
		start := hint - relocateWindow
		if start < 0 {
			start = 0
		}
		stop := hint + n
		if stop > len(content) {
			stop = len(content)
		}
		if idx := strings.LastIndex(content[start:stop], needle); idx >= 0 {
			return start + idx
		}
	}

	return strings.Index(content, needle)
}

// splice replaces content[at:at+len(old)] with new and returns the result.
func splice(content string, at int, old, replacement string) string {
	return content[:at] + replacement + content[at+len(old):]
}

// AcceptSuggestion applies a suggestion's revision to the document and
// removes it from the store, shifting every other stored span to match.
type AcceptSuggestion struct {
	Meta
	Sug     highlight.Suggestion
	Store   *store.Store
	GetDoc  document.Getter
	SetDoc  document.Updater
	OnApply func() // optional; runs after the text lands (drives TEXT_APPLIED)

	executedAt int         // where the original text was found
	preState   store.State // exact snapshot for undo
	executed   bool
}

// NewAcceptSuggestion builds the accept command for s.
func NewAcceptSuggestion(s highlight.Suggestion, st *store.Store, get document.Getter, set document.Updater) *AcceptSuggestion {
	return &AcceptSuggestion{
		Meta:   newMeta("accept_suggestion", fmt.Sprintf("Accept suggestion %s", s.ID)),
		Sug:    s,
		Store:  st,
		GetDoc: get,
		SetDoc: set,
	}
}

func (c *AcceptSuggestion) Execute() error {
	content := c.GetDoc()
	at := locate(content, c.Sug.OriginalText, c.Sug.Range.Start)
	if at < 0 {
		return fmt.Errorf("original text %q not found in document", c.Sug.OriginalText)
	}

	c.preState = c.Store.State()
	c.executedAt = at

	c.SetDoc(splice(content, at, c.Sug.OriginalText, c.Sug.SuggestedRevision))

	c.Store.Dispatch(store.Remove{ID: c.Sug.ID})
	if delta := len(c.Sug.SuggestedRevision) - len(c.Sug.OriginalText); delta != 0 {
		c.Store.Dispatch(store.ApplyEdit{
			EditStart:    at,
			DeleteCount:  len(c.Sug.OriginalText),
			InsertLength: len(c.Sug.SuggestedRevision),
		})
	}
	c.executed = true
	if c.OnApply != nil {
		c.OnApply()
	}
	return nil
}

func (c *AcceptSuggestion) Undo() error {
	if !c.executed {
		return fmt.Errorf("accept command %s has not executed", c.CommandID)
	}
	content := c.GetDoc()
	at := locate(content, c.Sug.SuggestedRevision, c.executedAt)
	if at < 0 {
		return fmt.Errorf("revised text %q not found in document", c.Sug.SuggestedRevision)
	}
	c.SetDoc(splice(content, at, c.Sug.SuggestedRevision, c.Sug.OriginalText))
	c.Store.Dispatch(store.Restore{State: c.preState})
	c.executed = false
	return nil
}

// DismissSuggestion removes one suggestion from the store. The document is
// untouched; undo reinstates the exact pre-dismissal store snapshot.
type DismissSuggestion struct {
	Meta
	SuggestionID string
	Store        *store.Store

	preState store.State
	executed bool
}

func NewDismissSuggestion(id string, st *store.Store) *DismissSuggestion {
	return &DismissSuggestion{
		Meta:         newMeta("dismiss_suggestion", fmt.Sprintf("Dismiss suggestion %s", id)),
		SuggestionID: id,
		Store:        st,
	}
}

func (c *DismissSuggestion) Execute() error {
	st := c.Store.State()
	if !store.SelectHas(st, c.SuggestionID) {
		return fmt.Errorf("suggestion %s not found", c.SuggestionID)
	}
	c.preState = st
	c.Store.Dispatch(store.Remove{ID: c.SuggestionID})
	c.executed = true
	return nil
}

func (c *DismissSuggestion) Undo() error {
	if !c.executed {
		return fmt.Errorf("dismiss command %s has not executed", c.CommandID)
	}
	c.Store.Dispatch(store.Restore{State: c.preState})
	c.executed = false
	return nil
}

// DismissAllSuggestions clears the store.
type DismissAllSuggestions struct {
	Meta
	Store *store.Store

	preState store.State
	executed bool
}

func NewDismissAllSuggestions(st *store.Store) *DismissAllSuggestions {
	return &DismissAllSuggestions{
		Meta:  newMeta("dismiss_all_suggestions", "Dismiss all suggestions"),
		Store: st,
	}
}

func (c *DismissAllSuggestions) Execute() error {
	c.preState = c.Store.State()
	c.Store.Dispatch(store.RemoveAll{})
	c.executed = true
	return nil
}

func (c *DismissAllSuggestions) Undo() error {
	if !c.executed {
		return fmt.Errorf("dismiss-all command %s has not executed", c.CommandID)
	}
	c.Store.Dispatch(store.Restore{State: c.preState})
	c.executed = false
	return nil
}

// Composite runs an ordered group of commands as one undoable unit. A
// failure partway through execution rolls back the commands already run;
// undo unwinds the group in reverse order.
type Composite struct {
	Meta
	Commands []Command
}

func NewComposite(description string, commands ...Command) *Composite {
	c := &Composite{
		Meta:     newMeta("composite", description),
		Commands: commands,
	}
	c.Group = c.CommandID
	return c
}

func (c *Composite) Execute() error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if undoErr := c.Commands[j].Undo(); undoErr != nil {
					return fmt.Errorf("command %d failed (%v); rollback of %d also failed: %w", i, err, j, undoErr)
				}
			}
			return fmt.Errorf("command %d of composite failed: %w", i, err)
		}
	}
	return nil
}

func (c *Composite) Undo() error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(); err != nil {
			return fmt.Errorf("undo of command %d in composite failed: %w", i, err)
		}
	}
	return nil
}
