package undo

import (
	"errors"

	"go.uber.org/zap"
)

// DefaultMaxSize bounds the undo stack when no limit is configured.
const DefaultMaxSize = 50

// ErrBusy reports a nested execute/undo/redo call. The stacks are left
// untouched; the caller must not retry from inside a command.
var ErrBusy = errors.New("undo manager is already executing a command")

// Manager owns the undo and redo stacks. Execute pushes onto the undo stack
// and clears redo; undo/redo move commands between the stacks. Not safe for
// concurrent use: the engine serializes all mutation.
type Manager struct {
	undoStack   []Command
	redoStack   []Command
	maxSize     int
	isExecuting bool
	log         *zap.Logger
}

// NewManager creates a manager keeping at most maxSize undoable commands;
// maxSize <= 0 selects DefaultMaxSize.
func NewManager(maxSize int, log *zap.Logger) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{maxSize: maxSize, log: log}
}

// Execute runs cmd and records it for undo. The redo stack is cleared; when
// the undo stack exceeds the limit the oldest command is evicted.
func (m *Manager) Execute(cmd Command) error {
	if m.isExecuting {
		return ErrBusy
	}
	m.isExecuting = true
	defer func() { m.isExecuting = false }()

	if err := cmd.Execute(); err != nil {
		m.log.Warn("command failed",
			zap.String("command", cmd.Type()),
			zap.String("id", cmd.ID()),
			zap.Error(err))
		return err
	}
	m.undoStack = append(m.undoStack, cmd)
	if len(m.undoStack) > m.maxSize {
		m.undoStack = m.undoStack[len(m.undoStack)-m.maxSize:]
	}
	m.redoStack = nil
	m.log.Info("command executed",
		zap.String("command", cmd.Type()),
		zap.String("id", cmd.ID()),
		zap.Int("undo_depth", len(m.undoStack)))
	return nil
}

// Undo reverses the most recent command. A failing undo pushes the command
// back so it is not lost.
func (m *Manager) Undo() error {
	if m.isExecuting {
		return ErrBusy
	}
	if len(m.undoStack) == 0 {
		return errors.New("nothing to undo")
	}
	m.isExecuting = true
	defer func() { m.isExecuting = false }()

	cmd := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	if err := cmd.Undo(); err != nil {
		m.undoStack = append(m.undoStack, cmd)
		m.log.Warn("undo failed",
			zap.String("command", cmd.Type()),
			zap.String("id", cmd.ID()),
			zap.Error(err))
		return err
	}
	m.redoStack = append(m.redoStack, cmd)
	m.log.Info("command undone", zap.String("command", cmd.Type()), zap.String("id", cmd.ID()))
	return nil
}

// Redo re-runs the most recently undone command. A failing redo pushes the
// command back onto the redo stack.
func (m *Manager) Redo() error {
	if m.isExecuting {
		return ErrBusy
	}
	if len(m.redoStack) == 0 {
		return errors.New("nothing to redo")
	}
	m.isExecuting = true
	defer func() { m.isExecuting = false }()

	cmd := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	if err := cmd.Execute(); err != nil {
		m.redoStack = append(m.redoStack, cmd)
		m.log.Warn("redo failed",
			zap.String("command", cmd.Type()),
			zap.String("id", cmd.ID()),
			zap.Error(err))
		return err
	}
	m.undoStack = append(m.undoStack, cmd)
	m.log.Info("command redone", zap.String("command", cmd.Type()), zap.String("id", cmd.ID()))
	return nil
}

// UndoGroup unwinds the undo stack down to and including every command
// tagged with groupID. Commands above the group's deepest member are undone
// too, preserving stack order. A no-op when the group is absent.
func (m *Manager) UndoGroup(groupID string) error {
	if m.isExecuting {
		return ErrBusy
	}
	deepest := -1
	for i, cmd := range m.undoStack {
		if cmd.GroupID() == groupID {
			deepest = i
			break
		}
	}
	if deepest < 0 {
		return nil
	}
	for len(m.undoStack) > deepest {
		if err := m.Undo(); err != nil {
			return err
		}
	}
	return nil
}

// CanUndo reports a non-empty undo stack.
func (m *Manager) CanUndo() bool { return len(m.undoStack) > 0 }

// CanRedo reports a non-empty redo stack.
func (m *Manager) CanRedo() bool { return len(m.redoStack) > 0 }

// UndoDepth returns the number of undoable commands.
func (m *Manager) UndoDepth() int { return len(m.undoStack) }

// RedoDepth returns the number of redoable commands.
func (m *Manager) RedoDepth() int { return len(m.redoStack) }

// PeekUndo returns the command Undo would reverse next.
func (m *Manager) PeekUndo() (Command, bool) {
	if len(m.undoStack) == 0 {
		return nil, false
	}
	return m.undoStack[len(m.undoStack)-1], true
}

// Clear drops both stacks without running anything.
func (m *Manager) Clear() {
	m.undoStack = nil
	m.redoStack = nil
}
