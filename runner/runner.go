// Package runner provides a convenience layer over the engine for
// dynamically built workflows: one-off definition execution, whole-run
// retry with backoff, and parallel or racing execution of several
// workflows at once.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AltairaLabs/FlowKit/engine"
	"github.com/AltairaLabs/FlowKit/logger"
	"github.com/AltairaLabs/FlowKit/workflow"
)

// ErrNoWorkflows is returned by the multi-workflow helpers when called
// with an empty set.
var ErrNoWorkflows = errors.New("no workflows to execute")

// Runner executes workflows through an engine.
type Runner struct {
	engine *engine.Engine
	retry  workflow.RetryPolicy
}

// Option configures a Runner.
type Option func(*Runner)

// WithRetryPolicy sets the backoff policy used by ExecuteWithRetry.
func WithRetryPolicy(policy workflow.RetryPolicy) Option {
	return func(r *Runner) { r.retry = policy }
}

// New creates a Runner bound to an engine.
func New(eng *engine.Engine, opts ...Option) *Runner {
	r := &Runner{engine: eng, retry: workflow.DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine returns the underlying engine.
func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Execute runs a registered workflow by ID.
func (r *Runner) Execute(ctx context.Context, workflowID string, inputs map[string]any, opts ...engine.ExecOption) *workflow.Result {
	return r.engine.Execute(ctx, workflowID, inputs, opts...)
}

// ExecuteDefinition registers the definition (replacing any previous
// registration under the same ID) and runs it immediately. Useful for
// workflows assembled at request time with the builder.
func (r *Runner) ExecuteDefinition(ctx context.Context, def *workflow.Definition, inputs map[string]any, opts ...engine.ExecOption) (*workflow.Result, error) {
	if err := r.engine.RegisterWorkflow(def); err != nil {
		return nil, fmt.Errorf("register workflow: %w", err)
	}
	return r.engine.Execute(ctx, def.ID, inputs, opts...), nil
}

// ExecuteWithRetry reruns a failed workflow with exponential backoff
// until it succeeds or the policy's attempts are exhausted. Cancelled
// executions are never retried.
func (r *Runner) ExecuteWithRetry(ctx context.Context, workflowID string, inputs map[string]any, opts ...engine.ExecOption) *workflow.Result {
	var result *workflow.Result
	delay := r.retry.BaseDelay

	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		result = r.engine.Execute(ctx, workflowID, inputs, opts...)
		if result.Success || result.Status == workflow.StatusCancelled {
			return result
		}
		if attempt == r.retry.MaxAttempts || ctx.Err() != nil {
			break
		}

		logger.Debug("retrying workflow",
			"workflow_id", workflowID,
			"attempt", attempt,
			"delay", delay,
			"error", result.Error,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return result
		}
		delay = time.Duration(float64(delay) * r.retry.Multiplier)
		if r.retry.MaxDelay > 0 && delay > r.retry.MaxDelay {
			delay = r.retry.MaxDelay
		}
	}
	return result
}

// Run names one workflow invocation for the multi-workflow helpers.
type Run struct {
	WorkflowID string
	Inputs     map[string]any
}

// ExecuteParallel runs all workflows concurrently and waits for every
// one to settle. Results are returned in the order the runs were given;
// failures are inside the corresponding Result.
func (r *Runner) ExecuteParallel(ctx context.Context, runs []Run) ([]*workflow.Result, error) {
	if len(runs) == 0 {
		return nil, ErrNoWorkflows
	}

	results := make([]*workflow.Result, len(runs))
	var wg sync.WaitGroup
	for i, run := range runs {
		wg.Add(1)
		go func(i int, run Run) {
			defer wg.Done()
			results[i] = r.engine.Execute(ctx, run.WorkflowID, run.Inputs)
		}(i, run)
	}
	wg.Wait()
	return results, nil
}

// ExecuteRace runs all workflows concurrently and returns the first one
// to finish, cancelling the rest. A failed finisher still wins the race.
func (r *Runner) ExecuteRace(ctx context.Context, runs []Run) (*workflow.Result, error) {
	if len(runs) == 0 {
		return nil, ErrNoWorkflows
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *workflow.Result, len(runs))
	for _, run := range runs {
		go func(run Run) {
			ch <- r.engine.Execute(raceCtx, run.WorkflowID, run.Inputs)
		}(run)
	}

	select {
	case result := <-ch:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
