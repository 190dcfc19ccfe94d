package steps

import (
	"context"
	"fmt"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// CustomHandler delegates to a caller-registered function named by the
// step's handler reference.
type CustomHandler struct {
	Funcs map[string]CustomFunc
}

// Execute resolves and invokes the named custom function.
func (h *CustomHandler) Execute(ctx context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	fn, ok := h.Funcs[step.Custom.Handler]
	if !ok {
		return nil, fmt.Errorf("no custom function registered for %q", step.Custom.Handler)
	}
	return fn(ctx, step.Custom.Config, ec)
}

// ValidateStep rejects custom steps referencing an unregistered function,
// failing the step before Execute is attempted.
func (h *CustomHandler) ValidateStep(step *workflow.Step, _ any) bool {
	if step.Custom == nil {
		return false
	}
	_, ok := h.Funcs[step.Custom.Handler]
	return ok
}
