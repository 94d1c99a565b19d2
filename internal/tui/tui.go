// Package tui provides the interactive terminal UI for redline-ui.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kvit-s/redline/internal/engine"
	"github.com/kvit-s/redline/internal/highlight"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	spanStyle       = lipgloss.NewStyle().Underline(true)
	activeSpanStyle = lipgloss.NewStyle().Underline(true).Reverse(true)

	categoryStyles = map[highlight.Category]lipgloss.Style{
		highlight.CategoryGrammar:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		highlight.CategoryClarity:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		highlight.CategoryStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		highlight.CategoryTone:      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		highlight.CategoryStructure: lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	}
)

// Model is the bubbletea model for a review session.
type Model struct {
	eng    *engine.Engine
	getDoc func() string

	viewport viewport.Model
	cursor   int
	status   string
	lastErr  string
	width    int
	height   int
	ready    bool
}

// New builds the model. The engine and document accessor are shared with
// whatever loaded the document.
func New(eng *engine.Engine, getDoc func() string) Model {
	return Model{
		eng:    eng,
		getDoc: getDoc,
		status: "enter accept · d dismiss · D dismiss all · u undo · r redo · q quit",
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		docHeight := m.height - m.listHeight() - 4
		if docHeight < 3 {
			docHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, docHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = docHeight
		}
		m.viewport.SetContent(m.renderDocument())

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "enter":
			m.run("accepted", func(id string) error { return m.eng.Accept(id) })
		case "d":
			m.run("dismissed", func(id string) error { return m.eng.Dismiss(id) })
		case "D":
			m.lastErr = ""
			if err := m.eng.DismissAll(); err != nil {
				m.lastErr = err.Error()
			} else {
				m.status = "dismissed all suggestions"
			}
			m.cursor = 0
		case "u":
			m.lastErr = ""
			if err := m.eng.Undo(); err != nil {
				m.lastErr = err.Error()
			} else {
				m.status = "undone"
			}
			m.clampCursor()
		case "r":
			m.lastErr = ""
			if err := m.eng.Redo(); err != nil {
				m.lastErr = err.Error()
			} else {
				m.status = "redone"
			}
			m.clampCursor()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		if m.ready {
			m.viewport.SetContent(m.renderDocument())
		}
	}
	return m, nil
}

// run applies op to the suggestion under the cursor.
func (m *Model) run(verb string, op func(id string) error) {
	m.lastErr = ""
	sugs := m.eng.Suggestions()
	if m.cursor >= len(sugs) {
		return
	}
	s := sugs[m.cursor]
	if err := op(s.ID); err != nil {
		m.lastErr = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s %q", verb, s.OriginalText)
	m.clampCursor()
}

func (m *Model) moveCursor(delta int) {
	sugs := m.eng.Suggestions()
	if len(sugs) == 0 {
		return
	}
	m.cursor += delta
	m.clampCursor()
	if err := m.eng.Activate(sugs[m.cursor].ID); err != nil {
		m.lastErr = err.Error()
	}
}

func (m *Model) clampCursor() {
	n := len(m.eng.Suggestions())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if n == 0 {
		m.eng.Deactivate()
	}
}

func (m Model) listHeight() int {
	n := len(m.eng.Suggestions())
	if n > 6 {
		n = 6
	}
	return n + 1
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("redline"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  %s", m.sessionLine())))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	if m.lastErr != "" {
		b.WriteString(errorStyle.Render(fmt.Sprintf("[error] %s", m.lastErr)))
	} else {
		b.WriteString(statusStyle.Render(m.status))
	}
	return b.String()
}

func (m Model) sessionLine() string {
	s := m.eng.Session()
	parts := []string{string(s.State), fmt.Sprintf("%d suggestions", len(m.eng.Suggestions()))}
	if m.eng.CanUndo() {
		parts = append(parts, "undo available")
	}
	return strings.Join(parts, " · ")
}

// renderDocument styles every suggestion span inside the live text. Spans
// never overlap, so a single left-to-right pass renders the whole document.
func (m Model) renderDocument() string {
	content := m.getDoc()
	sugs := m.eng.Suggestions()
	if len(sugs) == 0 {
		return content
	}
	sort.Slice(sugs, func(i, j int) bool { return sugs[i].Range.Start < sugs[j].Range.Start })

	activeID := ""
	if m.cursor < len(sugs) {
		activeID = sugs[m.cursor].ID
	}

	var b strings.Builder
	pos := 0
	for _, s := range sugs {
		if s.Range.Start > len(content) || s.Range.End > len(content) {
			continue
		}
		b.WriteString(content[pos:s.Range.Start])
		style := spanStyle
		if s.ID == activeID {
			style = activeSpanStyle
		}
		if cs, ok := categoryStyles[s.Category]; ok {
			style = style.Foreground(cs.GetForeground())
		}
		b.WriteString(style.Render(content[s.Range.Start:s.Range.End]))
		pos = s.Range.End
	}
	b.WriteString(content[pos:])
	return b.String()
}

func (m Model) renderList() string {
	sugs := m.eng.Suggestions()
	if len(sugs) == 0 {
		return mutedStyle.Render("no suggestions") + "\n"
	}

	var b strings.Builder
	for i, s := range sugs {
		prefix := "  "
		line := fmt.Sprintf("%d. [%s] %q → %q", i+1, s.Category, s.OriginalText, s.SuggestedRevision)
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
			line = cursorStyle.Render(line)
		} else {
			line = mutedStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}
