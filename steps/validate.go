package steps

import (
	"context"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// ValidationOutcome is the structured result a validate step produces.
// A non-valid outcome is still a completed step; callers branch on it
// with a condition step or read it from the outputs map.
type ValidationOutcome struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateHandler checks the step's bound value against an optional JSON
// schema and an optional boolean expression.
type ValidateHandler struct{}

// Execute runs the configured checks and returns a ValidationOutcome.
func (h *ValidateHandler) Execute(_ context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	input, err := resolveInput(ec, step.Validate.InputPath, step.ID)
	if err != nil {
		return nil, err
	}

	outcome := ValidationOutcome{Valid: true}

	if step.Validate.Schema != nil {
		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(step.Validate.Schema),
			gojsonschema.NewGoLoader(input),
		)
		if err != nil {
			return nil, fmt.Errorf("schema validation: %w", err)
		}
		if !result.Valid() {
			outcome.Valid = false
			for _, desc := range result.Errors() {
				outcome.Errors = append(outcome.Errors, desc.String())
			}
		}
	}

	if step.Validate.Expression != "" {
		ok, err := evalBoolExpr(step.Validate.Expression, exprEnv(ec, input))
		if err != nil {
			return nil, err
		}
		if !ok {
			outcome.Valid = false
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("expression %q is false", step.Validate.Expression))
		}
	}

	return outcome, nil
}
