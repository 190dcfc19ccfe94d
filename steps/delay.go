package steps

import (
	"context"
	"time"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// DelayHandler suspends for the step's configured duration and produces
// no output. The sleep is interrupted by context cancellation.
type DelayHandler struct{}

// Execute sleeps for the configured duration.
func (h *DelayHandler) Execute(ctx context.Context, step *workflow.Step, _ *workflow.ExecutionContext) (any, error) {
	timer := time.NewTimer(step.Delay.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
