// Package replay loads recorded review sessions from yaml and drives them
// through the engine. Transcripts double as integration fixtures and as a
// way to reproduce a reported session offline, without the agent attached.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Transcript is one recorded session: a starting document and the ordered
// steps taken over it.
type Transcript struct {
	Name     string `yaml:"name"`
	Document string `yaml:"document"`
	Steps    []Step `yaml:"steps"`
}

// Step is either a tool call (Tool set) or a user action (Action set),
// never both.
type Step struct {
	Tool string         `yaml:"tool"`
	Args map[string]any `yaml:"args"`

	Action string `yaml:"action"`
	Target int    `yaml:"target"` // 1-based suggestion ordinal for accept/dismiss/activate

	// edit action fields
	At     int    `yaml:"at"`
	Delete int    `yaml:"delete"`
	Insert string `yaml:"insert"`
}

// User actions a transcript may replay.
const (
	ActionAccept     = "accept"
	ActionDismiss    = "dismiss"
	ActionDismissAll = "dismiss_all"
	ActionActivate   = "activate"
	ActionUndo       = "undo"
	ActionRedo       = "redo"
	ActionEdit       = "edit"
)

// Load reads a transcript from a YAML file.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every step is well-formed before any of them run.
func (t *Transcript) Validate() error {
	for i, s := range t.Steps {
		switch {
		case s.Tool != "" && s.Action != "":
			return fmt.Errorf("step %d sets both tool and action", i)
		case s.Tool == "" && s.Action == "":
			return fmt.Errorf("step %d sets neither tool nor action", i)
		case s.Tool != "":
			continue
		}
		switch s.Action {
		case ActionAccept, ActionDismiss, ActionActivate:
			if s.Target < 1 {
				return fmt.Errorf("step %d: action %s needs a positive target", i, s.Action)
			}
		case ActionDismissAll, ActionUndo, ActionRedo:
		case ActionEdit:
			if s.At < 0 || s.Delete < 0 {
				return fmt.Errorf("step %d: edit bounds must not be negative", i)
			}
		default:
			return fmt.Errorf("step %d: unknown action %q", i, s.Action)
		}
	}
	return nil
}

// arguments marshals a tool step's args to the executor's wire form.
func (s Step) arguments() (json.RawMessage, error) {
	if s.Args == nil {
		return json.RawMessage(`{}`), nil
	}
	return json.Marshal(s.Args)
}
