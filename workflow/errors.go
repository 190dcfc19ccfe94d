package workflow

import "errors"

// ErrInvalidDefinition is returned when a workflow definition fails
// structural validation (missing IDs, duplicate steps, dangling references).
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// ErrNoHandler is returned by the engine when a step's type has no
// registered handler.
var ErrNoHandler = errors.New("no handler registered for step type")

// ErrStepTimeout is the failure recorded when a step's handler does not
// return before its deadline.
var ErrStepTimeout = errors.New("step execution timeout")

// ErrStepValidation is the failure recorded when a handler's pre-execution
// validation rejects the step's input.
var ErrStepValidation = errors.New("step validation failed")
