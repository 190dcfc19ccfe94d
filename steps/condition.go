package steps

import (
	"context"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// ConditionHandler evaluates the step's boolean expression against the
// execution context, then runs whichever branch step the result selects
// and returns that branch's output. Branch steps are excluded from the
// top-level walk, so exactly one of them executes. A selected side with
// no branch configured returns the boolean itself.
type ConditionHandler struct {
	Runner SubStepRunner
}

// Execute evaluates the condition and runs the selected branch.
func (h *ConditionHandler) Execute(ctx context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	bound, _ := ec.Variable(step.ID)
	selected, err := evalBoolExpr(step.Condition.Expression, exprEnv(ec, bound))
	if err != nil {
		return nil, err
	}

	target := step.Condition.FalseStep
	if selected {
		target = step.Condition.TrueStep
	}
	if target == "" {
		return selected, nil
	}
	if h.Runner == nil {
		return nil, ErrNoRunner
	}
	return h.Runner.RunStep(ctx, ec, target)
}
