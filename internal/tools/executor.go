package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single tool call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Call is a structured request from the agent naming a tool and its
// arguments.
type Call struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// CallResult pairs a call with its outcome and measured duration.
type CallResult struct {
	CallID   string        `json:"call_id"`
	ToolName string        `json:"tool_name"`
	Result   Result        `json:"result"`
	Duration time.Duration `json:"duration_ms"`
}

// BatchResult aggregates a batch execution.
type BatchResult struct {
	Results   []CallResult
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Executor resolves, validates, and runs tool calls against fresh context
// snapshots. Validation failures are returned as recoverable INVALID_PARAMS
// results without executing the tool.
type Executor struct {
	registry *Registry
	provider ContextProvider
	timeout  time.Duration
	log      *zap.Logger
}

// NewExecutor builds an executor. timeout <= 0 selects DefaultTimeout; a nil
// logger disables logging.
func NewExecutor(registry *Registry, provider ContextProvider, timeout time.Duration, log *zap.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{registry: registry, provider: provider, timeout: timeout, log: log}
}

// Execute runs one call. The context carries cancellation: an already
// cancelled context fails with ABORTED before dispatch, and cancellation
// during execution wins the race against the result.
func (e *Executor) Execute(ctx context.Context, call Call) CallResult {
	start := time.Now()
	done := func(res Result) CallResult {
		duration := time.Since(start)
		e.log.Info("tool executed",
			zap.String("tool", call.Name),
			zap.String("call_id", call.ID),
			zap.Duration("duration", duration),
			zap.Bool("success", res.OK))
		return CallResult{CallID: call.ID, ToolName: call.Name, Result: res, Duration: duration}
	}

	tool := e.registry.Get(call.Name)
	if tool == nil {
		return done(Failure(CodeUnknownTool, true, "unknown tool %q", call.Name))
	}

	if err := ctx.Err(); err != nil {
		return done(Failure(CodeAborted, false, "call aborted before dispatch: %v", err))
	}

	if err := tool.Check(call.Arguments); err != nil {
		return done(Failure(CodeInvalidParams, true, "invalid parameters for %s: %v", call.Name, err))
	}

	tc := e.provider()

	resultCh := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- Failure(CodeExecutionError, false, "tool %s panicked: %v", call.Name, r)
			}
		}()
		resultCh <- tool.Call(ctx, call.Arguments, tc)
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return done(res)
	case <-timer.C:
		return done(Failure(CodeTimeout, true, "tool %s timed out after %s", call.Name, e.timeout))
	case <-ctx.Done():
		return done(Failure(CodeAborted, false, "call aborted: %v", ctx.Err()))
	}
}

// ExecuteBatch runs calls strictly in order, preserving position-dependent
// guarantees between them. With stopOnFailure set, the first failed result
// ends the batch; later calls are not executed.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []Call, stopOnFailure bool) BatchResult {
	start := time.Now()
	var batch BatchResult
	for _, call := range calls {
		res := e.Execute(ctx, call)
		batch.Results = append(batch.Results, res)
		if res.Result.OK {
			batch.Succeeded++
		} else {
			batch.Failed++
			if stopOnFailure {
				break
			}
		}
	}
	batch.Duration = time.Since(start)
	return batch
}

// ExecuteParallel runs calls concurrently. Only non-mutating tools are
// eligible: any call naming a mutating or unknown tool fails the whole batch
// up front, because concurrent execution voids the ordering guarantees
// mutating tools rely on.
func (e *Executor) ExecuteParallel(ctx context.Context, calls []Call) (BatchResult, error) {
	for _, call := range calls {
		tool := e.registry.Get(call.Name)
		if tool == nil {
			return BatchResult{}, fmt.Errorf("unknown tool %q in parallel batch", call.Name)
		}
		if tool.Mutating() {
			return BatchResult{}, fmt.Errorf("mutating tool %q is not allowed in a parallel batch", call.Name)
		}
	}

	start := time.Now()
	results := make([]CallResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			results[i] = e.Execute(ctx, call)
		}(i, call)
	}
	wg.Wait()

	batch := BatchResult{Results: results, Duration: time.Since(start)}
	for _, res := range results {
		if res.Result.OK {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	return batch, nil
}
