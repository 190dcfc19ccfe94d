package steps

import (
	"context"
	"fmt"

	"github.com/jmespath/go-jmespath"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// TransformHandler applies the step's expression to a value. The value
// comes from the step's InputPath (a JMESPath over the variable bindings)
// when set, otherwise from the variable bound to the step's own ID.
// When OutputPath is set, the result is additionally bound under that
// variable name.
type TransformHandler struct{}

// Execute evaluates the transform expression.
func (h *TransformHandler) Execute(_ context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	input, err := resolveInput(ec, step.Transform.InputPath, step.ID)
	if err != nil {
		return nil, err
	}

	result, err := evalExpr(step.Transform.Expression, exprEnv(ec, input))
	if err != nil {
		return nil, err
	}

	if step.Transform.OutputPath != "" {
		ec.SetVariable(step.Transform.OutputPath, result)
	}
	return result, nil
}

// resolveInput picks the value a transform or validation step operates on.
func resolveInput(ec *workflow.ExecutionContext, inputPath, stepID string) (any, error) {
	if inputPath == "" {
		bound, _ := ec.Variable(stepID)
		return bound, nil
	}
	value, err := jmespath.Search(inputPath, ec.Variables())
	if err != nil {
		return nil, fmt.Errorf("resolve input path %q: %w", inputPath, err)
	}
	return value, nil
}
