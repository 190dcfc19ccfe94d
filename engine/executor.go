package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AltairaLabs/FlowKit/logger"
	"github.com/AltairaLabs/FlowKit/workflow"
)

// handlerResult carries a handler invocation's outcome across the
// goroutine boundary. The channel is buffered so a handler finishing
// after its deadline does not leak a goroutine; its result is discarded.
type handlerResult struct {
	output any
	err    error
}

// runStep executes one step with validation, timeout, and retry
// semantics, emitting step lifecycle events and returning the attempt
// record for the execution history.
func (e *Engine) runStep(ctx context.Context, exec *execution, step *workflow.Step) (any, workflow.StepExecution, error) {
	ec := exec.ec
	ec.SetCurrentStep(step.ID)

	rec := workflow.StepExecution{
		StepID:    step.ID,
		Status:    workflow.StatusRunning,
		StartedAt: time.Now(),
		Metadata:  step.Metadata,
	}
	// A step's input is whatever an earlier step (or the caller's inputs)
	// bound under this step's ID.
	input, _ := ec.Variable(step.ID)
	rec.Input = input

	exec.emitter.StepStarted(step.ID, string(step.Type), step.Name)

	handler, ok := e.StepHandler(step.Type)
	if !ok {
		err := fmt.Errorf("%w: %s", workflow.ErrNoHandler, step.Type)
		return nil, e.failStep(exec, step, rec, err, 0), err
	}

	if validator, ok := handler.(workflow.StepValidator); ok {
		if !validator.ValidateStep(step, input) {
			err := fmt.Errorf("%w: step %s", workflow.ErrStepValidation, step.ID)
			return nil, e.failStep(exec, step, rec, err, 0), err
		}
	}

	policy := workflow.DefaultRetryPolicy()
	if exec.def.Retry != nil {
		policy = *exec.def.Retry
	}
	maxAttempts := step.Retries + 1

	var output any
	var err error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		output, err = e.invoke(ctx, exec, step, handler)
		if err == nil {
			break
		}
		// Cancellation is terminal; never retry past it.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}
		if attempt == maxAttempts {
			break
		}

		delay := backoffDelay(policy, attempt)
		logger.Debug("retrying step",
			"execution_id", ec.ExecutionID,
			"step_id", step.ID,
			"attempt", attempt,
			"delay", delay,
			"error", err.Error(),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			err = ctx.Err()
			attempt = maxAttempts
		}
	}

	if err != nil {
		return nil, e.failStep(exec, step, rec, err, attempts), err
	}

	rec.Status = workflow.StatusCompleted
	rec.CompletedAt = time.Now()
	rec.Duration = rec.CompletedAt.Sub(rec.StartedAt)
	rec.Output = output
	rec.Attempts = attempts
	exec.emitter.StepCompleted(step.ID, string(step.Type), rec.Duration, attempts)
	logger.Debug("step completed",
		"execution_id", ec.ExecutionID,
		"step_id", step.ID,
		"duration", rec.Duration,
		"attempts", attempts,
	)
	return output, rec, nil
}

// invoke runs the handler once under the effective step timeout. The
// handler runs in its own goroutine so a stuck handler cannot wedge the
// orchestrator; on timeout the step context is cancelled and any late
// result is discarded.
func (e *Engine) invoke(ctx context.Context, exec *execution, step *workflow.Step, handler workflow.StepHandler) (any, error) {
	timeout := e.stepTimeout(exec, step)
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan handlerResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- handlerResult{err: fmt.Errorf("step handler panic: %v", r)}
			}
		}()
		output, err := handler.Execute(stepCtx, step, exec.ec)
		ch <- handlerResult{output: output, err: err}
	}()

	select {
	case res := <-ch:
		if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
			// The handler observed the step deadline itself.
			return nil, fmt.Errorf("%w: step %s after %s", workflow.ErrStepTimeout, step.ID, timeout)
		}
		return res.output, res.err
	case <-stepCtx.Done():
		if ctx.Err() != nil {
			// Parent ended: cancellation or workflow-level deadline.
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: step %s after %s", workflow.ErrStepTimeout, step.ID, timeout)
	}
}

// stepTimeout resolves the effective timeout: the step's own setting wins
// over the call-level override, which wins over the engine default.
func (e *Engine) stepTimeout(exec *execution, step *workflow.Step) time.Duration {
	if step.Timeout > 0 {
		return step.Timeout
	}
	if exec.stepTimeout > 0 {
		return exec.stepTimeout
	}
	return e.cfg.DefaultStepTimeout
}

func (e *Engine) failStep(exec *execution, step *workflow.Step, rec workflow.StepExecution, err error, attempts int) workflow.StepExecution {
	rec.Status = workflow.StatusFailed
	rec.CompletedAt = time.Now()
	rec.Duration = rec.CompletedAt.Sub(rec.StartedAt)
	rec.Error = err.Error()
	rec.Attempts = attempts
	exec.emitter.StepFailed(step.ID, string(step.Type), err, rec.Duration, attempts)
	logger.Warn("step failed",
		"execution_id", exec.ec.ExecutionID,
		"step_id", step.ID,
		"attempts", attempts,
		"error", err.Error(),
	)
	return rec
}

// backoffDelay computes the exponential delay before retry attempt+1.
func backoffDelay(policy workflow.RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * policy.Multiplier)
		if delay >= policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		return policy.MaxDelay
	}
	return delay
}
