// Package repl provides the interactive command loop for the redline CLI.
package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kvit-s/redline/internal/document"
	"github.com/kvit-s/redline/internal/engine"
	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/lifecycle"
	"github.com/kvit-s/redline/internal/store"
	"github.com/kvit-s/redline/internal/tools"
	"github.com/kvit-s/redline/internal/ui"
)

// Session holds what the command loop operates on.
type Session struct {
	Engine  *engine.Engine
	Writer  *ui.Writer
	GetDoc  func() string
	SetDoc  func(string)
	DocPath string // empty disables save
}

// Run reads commands until quit or EOF.
func Run(s *Session) {
	s.Writer.StartupInfo("Commands: list, show N, accept N, dismiss N|all, undo, redo, suggest, edit, stats, save, help, quit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("redline> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := s.handle(line); quit {
			break
		}
	}
}

func (s *Session) handle(line string) bool {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "quit", "q", "exit":
		return true

	case "help", "h":
		s.showHelp()

	case "list", "ls":
		s.list()

	case "show":
		s.show(args)

	case "accept":
		s.withTarget(args, "accept", s.Engine.Accept)

	case "dismiss":
		if len(args) == 1 && args[0] == "all" {
			if err := s.Engine.DismissAll(); err != nil {
				s.Writer.Error(err.Error())
			} else {
				s.Writer.Info("dismissed all suggestions")
			}
			return false
		}
		s.withTarget(args, "dismiss", s.Engine.Dismiss)

	case "undo":
		if err := s.Engine.Undo(); err != nil {
			s.Writer.Error(err.Error())
		} else {
			s.Writer.Info("undone")
		}

	case "redo":
		if err := s.Engine.Redo(); err != nil {
			s.Writer.Error(err.Error())
		} else {
			s.Writer.Info("redone")
		}

	case "suggest":
		s.suggest(args)

	case "edit":
		s.edit(args)

	case "stats":
		snap := document.NewSnapshot(s.GetDoc())
		s.Writer.Plain(ui.FormatStats(snap.ComputeStats()))

	case "save":
		s.save(args)

	default:
		s.Writer.Warn(fmt.Sprintf("unknown command %q, try help", cmd))
	}
	return false
}

func (s *Session) showHelp() {
	s.Writer.Plain("Available commands:")
	s.Writer.Plain("  list                 Show all suggestions")
	s.Writer.Plain("  show N               Show suggestion N with its document context")
	s.Writer.Plain("  accept N             Apply suggestion N to the document")
	s.Writer.Plain("  dismiss N | all      Drop suggestion N, or every suggestion")
	s.Writer.Plain("  undo / redo          Step through the command history")
	s.Writer.Plain("  suggest L S E CAT R  Propose revision R for line L columns [S,E) as category CAT")
	s.Writer.Plain("  edit AT DEL [TEXT]   Replace DEL characters at offset AT with TEXT")
	s.Writer.Plain("  stats                Document statistics")
	s.Writer.Plain("  save [PATH]          Write the document back to disk")
	s.Writer.Plain("  quit                 Exit")
}

func (s *Session) list() {
	sugs := s.Engine.Suggestions()
	if len(sugs) == 0 {
		s.Writer.Info("no suggestions")
		return
	}
	activeID := ""
	if active, ok := store.SelectActive(s.Engine.Store().State()); ok {
		activeID = active.ID
	}
	for i, sug := range sugs {
		state := lifecycle.StateReady
		if ts, ok := s.Engine.Tracked(sug.ID); ok {
			state = ts.State
		}
		s.Writer.Suggestion(i+1, sug, state, sug.ID == activeID)
	}
}

func (s *Session) show(args []string) {
	sug, ok := s.target(args)
	if !ok {
		return
	}
	if err := s.Engine.Activate(sug.ID); err != nil {
		s.Writer.Error(err.Error())
		return
	}
	snap := document.NewSnapshot(s.GetDoc())
	lineNo := snap.LineAt(sug.Range.Start)
	line, err := snap.Line(lineNo)
	if err != nil {
		s.Writer.Error(err.Error())
		return
	}
	lineStart, _ := snap.LineStart(lineNo)
	col := sug.Range.Start - lineStart
	s.Writer.Excerpt(lineNo, line, col, col+sug.Range.Len())
	s.Writer.Plain(fmt.Sprintf("  %s: %s", sug.Category, sug.Observation))
	s.Writer.Plain(fmt.Sprintf("  %q → %q", sug.OriginalText, sug.SuggestedRevision))
}

// suggest runs a manual highlight_text call through the tool pipeline, the
// same path agent proposals take.
func (s *Session) suggest(args []string) {
	if len(args) < 5 {
		s.Writer.Warn("usage: suggest LINE START END CATEGORY REVISION...")
		return
	}
	lineNo, err1 := strconv.Atoi(args[0])
	startCol, err2 := strconv.Atoi(args[1])
	endCol, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil {
		s.Writer.Warn("line and columns must be integers")
		return
	}
	category := args[3]
	revision := strings.Join(args[4:], " ")

	snap := document.NewSnapshot(s.GetDoc())
	line, err := snap.Line(lineNo)
	if err != nil {
		s.Writer.Error(err.Error())
		return
	}
	if startCol < 0 || endCol > len(line) || startCol >= endCol {
		s.Writer.Error(fmt.Sprintf("columns [%d,%d) out of bounds for line of length %d", startCol, endCol, len(line)))
		return
	}

	raw, _ := json.Marshal(map[string]any{
		"line_number":        lineNo,
		"start_column":       startCol,
		"end_column":         endCol,
		"original_text":      line[startCol:endCol],
		"suggestion_type":    category,
		"observation":        "manual suggestion",
		"suggested_revision": revision,
	})

	// Open a review around the call when none is in flight.
	_ = s.Engine.StartReview()
	batch := s.Engine.RunToolCalls(context.Background(), []tools.Call{
		{ID: "manual-1", Name: "highlight_text", Arguments: raw},
		{ID: "manual-2", Name: "finish_review", Arguments: json.RawMessage(`{}`)},
	})
	res := batch.Results[0].Result
	if !res.OK {
		s.Writer.Error(fmt.Sprintf("%s: %s", res.Code, res.Error))
		return
	}
	if res.Message != "" {
		s.Writer.Info(res.Message)
	}
	s.list()
}

func (s *Session) edit(args []string) {
	if len(args) < 2 {
		s.Writer.Warn("usage: edit AT DELETE [TEXT]")
		return
	}
	at, err1 := strconv.Atoi(args[0])
	del, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		s.Writer.Warn("offset and delete count must be integers")
		return
	}
	insert := strings.Join(args[2:], " ")

	doc := s.GetDoc()
	if at < 0 || del < 0 || at+del > len(doc) {
		s.Writer.Error(fmt.Sprintf("edit at %d (+%d) exceeds document length %d", at, del, len(doc)))
		return
	}
	s.SetDoc(doc[:at] + insert + doc[at+del:])
	s.Engine.ApplyTextEdit(at, del, len(insert))
	s.Writer.Info(fmt.Sprintf("%d suggestions remain", len(s.Engine.Suggestions())))
}

func (s *Session) save(args []string) {
	path := s.DocPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		s.Writer.Warn("no document path; use save PATH")
		return
	}
	if err := os.WriteFile(path, []byte(s.GetDoc()), 0o644); err != nil {
		s.Writer.Error(err.Error())
		return
	}
	s.Writer.Info(fmt.Sprintf("saved %s", path))
}

// withTarget resolves an ordinal argument and applies op to that suggestion.
func (s *Session) withTarget(args []string, verb string, op func(id string) error) {
	sug, ok := s.target(args)
	if !ok {
		return
	}
	if err := op(sug.ID); err != nil {
		s.Writer.Error(err.Error())
		return
	}
	s.Writer.Info(fmt.Sprintf("%s %q", verb, sug.OriginalText))
}

func (s *Session) target(args []string) (highlight.Suggestion, bool) {
	if len(args) != 1 {
		s.Writer.Warn("expected one suggestion number")
		return highlight.Suggestion{}, false
	}
	n, err := strconv.Atoi(args[0])
	sugs := s.Engine.Suggestions()
	if err != nil || n < 1 || n > len(sugs) {
		s.Writer.Warn(fmt.Sprintf("suggestion number must be 1..%d", len(sugs)))
		return highlight.Suggestion{}, false
	}
	return sugs[n-1], true
}
