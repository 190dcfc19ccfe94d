package steps

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// exprEnv builds the sandboxed environment expressions run against.
// Expressions see exactly three names: "input" (the step's bound value),
// "inputs" (the caller-supplied inputs), and "variables" (the current
// variable bindings). Nothing else is reachable.
func exprEnv(ec *workflow.ExecutionContext, input any) map[string]any {
	return map[string]any{
		"input":     input,
		"inputs":    ec.Inputs,
		"variables": ec.Variables(),
	}
}

// evalExpr compiles and runs an expression in the sandboxed environment.
func evalExpr(code string, env map[string]any) (any, error) {
	program, err := expr.Compile(code, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", code, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", code, err)
	}
	return out, nil
}

// evalBoolExpr runs an expression that must produce a boolean.
func evalBoolExpr(code string, env map[string]any) (bool, error) {
	out, err := evalExpr(code, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q produced %T, want bool", code, out)
	}
	return b, nil
}
