package steps

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// ErrNoRunner is returned when a parallel step runs without a sub-step
// runner wired in (only possible with a hand-built handler set).
var ErrNoRunner = errors.New("no sub-step runner configured")

// ParallelHandler fans out to the step IDs listed in the step's parallel
// group. With WaitForAll it joins every sub-step and returns a map of
// their outputs keyed by step ID; otherwise it returns the first sub-step
// to finish, cancelling the rest cooperatively.
type ParallelHandler struct {
	Runner SubStepRunner
}

// Execute runs the parallel group.
func (h *ParallelHandler) Execute(ctx context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	if h.Runner == nil {
		return nil, ErrNoRunner
	}
	if step.Parallel.WaitForAll {
		return h.waitAll(ctx, step, ec)
	}
	return h.waitFirst(ctx, step, ec)
}

func (h *ParallelHandler) waitAll(ctx context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	var mu sync.Mutex
	outputs := make(map[string]any, len(step.Parallel.Steps))

	g, gctx := errgroup.WithContext(ctx)
	for _, stepID := range step.Parallel.Steps {
		stepID := stepID
		g.Go(func() error {
			out, err := h.Runner.RunStep(gctx, ec, stepID)
			if err != nil {
				return err
			}
			mu.Lock()
			outputs[stepID] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (h *ParallelHandler) waitFirst(ctx context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type settled struct {
		out any
		err error
	}
	ch := make(chan settled, len(step.Parallel.Steps))

	for _, stepID := range step.Parallel.Steps {
		stepID := stepID
		go func() {
			out, err := h.Runner.RunStep(ctx, ec, stepID)
			ch <- settled{out: out, err: err}
		}()
	}

	select {
	case first := <-ch:
		return first.out, first.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
