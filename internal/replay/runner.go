package replay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kvit-s/redline/internal/engine"
	"github.com/kvit-s/redline/internal/highlight"
	"github.com/kvit-s/redline/internal/tools"
)

// StepResult records the outcome of one replayed step.
type StepResult struct {
	Index  int
	Kind   string // tool name or action name
	OK     bool
	Detail string
}

// Report is the outcome of a full replay.
type Report struct {
	Name          string
	Steps         []StepResult
	Succeeded     int
	Failed        int
	FinalDocument string
	Remaining     []highlight.Suggestion
	Duration      time.Duration
}

// Runner replays transcripts, each in a fresh engine.
type Runner struct {
	opts engine.Options
	log  *zap.Logger
}

// NewRunner builds a runner. The document accessors in opts are ignored;
// each replay owns its document.
func NewRunner(opts engine.Options, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{opts: opts, log: log}
}

// Run replays a transcript from the top. Step failures are recorded, not
// fatal: a transcript that exercises error paths is still a valid replay.
func (r *Runner) Run(ctx context.Context, t *Transcript) (*Report, error) {
	started := time.Now()

	content := t.Document
	opts := r.opts
	opts.GetDocument = func() string { return content }
	opts.SetDocument = func(c string) { content = c }
	opts.Logger = r.log

	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}

	report := &Report{Name: t.Name}
	for i, step := range t.Steps {
		var res StepResult
		if step.Tool != "" {
			res = r.runTool(ctx, eng, i, step)
		} else {
			res = r.runAction(eng, i, step, &content)
		}
		report.Steps = append(report.Steps, res)
		if res.OK {
			report.Succeeded++
		} else {
			report.Failed++
			r.log.Warn("replay step failed",
				zap.Int("step", i),
				zap.String("kind", res.Kind),
				zap.String("detail", res.Detail))
		}
	}

	report.FinalDocument = content
	report.Remaining = eng.Suggestions()
	report.Duration = time.Since(started)
	return report, nil
}

func (r *Runner) runTool(ctx context.Context, eng *engine.Engine, i int, step Step) StepResult {
	res := StepResult{Index: i, Kind: step.Tool}

	args, err := step.arguments()
	if err != nil {
		res.Detail = err.Error()
		return res
	}

	// The engine drives the session machine off tool calls, so the
	// review has to be open before the first one lands.
	if !eng.Session().IsProcessing {
		if err := eng.StartReview(); err != nil {
			res.Detail = err.Error()
			return res
		}
	}

	batch := eng.RunToolCalls(ctx, []tools.Call{{
		ID:        fmt.Sprintf("replay-%d", i),
		Name:      step.Tool,
		Arguments: args,
	}})
	outcome := batch.Results[0].Result
	res.OK = outcome.OK
	if outcome.OK {
		res.Detail = outcome.Message
	} else {
		res.Detail = fmt.Sprintf("%s: %s", outcome.Code, outcome.Error)
	}
	return res
}

func (r *Runner) runAction(eng *engine.Engine, i int, step Step, content *string) StepResult {
	res := StepResult{Index: i, Kind: step.Action}

	var err error
	switch step.Action {
	case ActionAccept:
		var id string
		if id, err = r.targetID(eng, step.Target); err == nil {
			err = eng.Accept(id)
		}
	case ActionDismiss:
		var id string
		if id, err = r.targetID(eng, step.Target); err == nil {
			err = eng.Dismiss(id)
		}
	case ActionActivate:
		var id string
		if id, err = r.targetID(eng, step.Target); err == nil {
			err = eng.Activate(id)
		}
	case ActionDismissAll:
		err = eng.DismissAll()
	case ActionUndo:
		err = eng.Undo()
	case ActionRedo:
		err = eng.Redo()
	case ActionEdit:
		err = r.applyEdit(eng, step, content)
	}

	if err != nil {
		res.Detail = err.Error()
		return res
	}
	res.OK = true
	return res
}

// targetID resolves a transcript's 1-based ordinal against the live
// position-sorted suggestion list.
func (r *Runner) targetID(eng *engine.Engine, target int) (string, error) {
	sugs := eng.Suggestions()
	if target < 1 || target > len(sugs) {
		return "", fmt.Errorf("target %d out of range, %d suggestions held", target, len(sugs))
	}
	return sugs[target-1].ID, nil
}

// applyEdit mutates the replay document and feeds the edit to the engine.
func (r *Runner) applyEdit(eng *engine.Engine, step Step, content *string) error {
	doc := *content
	if step.At > len(doc) || step.At+step.Delete > len(doc) {
		return fmt.Errorf("edit at %d (+%d) exceeds document length %d", step.At, step.Delete, len(doc))
	}
	*content = doc[:step.At] + step.Insert + doc[step.At+step.Delete:]
	eng.ApplyTextEdit(step.At, step.Delete, len(step.Insert))
	return nil
}
