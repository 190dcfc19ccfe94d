package workflow

import "context"

// StepHandler executes steps of one step type. Implementations must be
// safe for concurrent use: the same handler instance serves every
// execution of the engine it is registered with.
//
// The context carries the execution's deadline and cancellation; handlers
// should honor ctx.Done() at their suspension points.
type StepHandler interface {
	Execute(ctx context.Context, step *Step, ec *ExecutionContext) (any, error)
}

// StepValidator is an optional interface a StepHandler may implement to
// vet a step's bound input before Execute is attempted. Returning false
// fails the step without invoking Execute. The engine type-asserts for
// this interface before each step run.
type StepValidator interface {
	ValidateStep(step *Step, input any) bool
}

// HandlerFunc adapts a plain function to the StepHandler interface.
type HandlerFunc func(ctx context.Context, step *Step, ec *ExecutionContext) (any, error)

// Execute calls fn.
func (fn HandlerFunc) Execute(ctx context.Context, step *Step, ec *ExecutionContext) (any, error) {
	return fn(ctx, step, ec)
}
