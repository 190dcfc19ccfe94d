// Package steps provides the engine's built-in step handlers: prompt,
// condition, parallel, delay, transform, validate, api_call, and custom.
//
// Handlers are constructed once per engine via Defaults and are safe for
// concurrent use. Each is independently replaceable through the engine's
// handler registry.
package steps

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// PromptCompiler is the prompt-compilation collaborator: it resolves a
// template by ID, substitutes variables, and returns the compiled text.
// template.Registry is the default implementation.
type PromptCompiler interface {
	Compile(ctx context.Context, templateID string, vars map[string]string) (string, error)
}

// SubStepRunner executes one step of the current workflow with full
// executor semantics (timeout, retry, events, history). The engine
// implements this for parallel fan-out and condition branches.
type SubStepRunner interface {
	RunStep(ctx context.Context, ec *workflow.ExecutionContext, stepID string) (any, error)
}

// CustomFunc is a caller-provided implementation for custom steps,
// resolved by the name in the step's handler reference.
type CustomFunc func(ctx context.Context, config map[string]any, ec *workflow.ExecutionContext) (any, error)

// Deps carries the collaborators the built-in handlers need.
type Deps struct {
	// Compiler resolves prompt templates. Required for prompt steps.
	Compiler PromptCompiler

	// HTTPClient issues api_call requests. Defaults to an
	// otelhttp-instrumented client with a 30s timeout.
	HTTPClient *http.Client

	// Limiter, when set, rate-limits api_call requests engine-wide.
	Limiter *rate.Limiter

	// Runner executes sub-steps with full executor semantics. Required
	// for parallel fan-out and condition branches.
	Runner SubStepRunner

	// Custom maps custom-handler names to functions.
	Custom map[string]CustomFunc
}

// defaultHTTPTimeout bounds api_call requests that carry no step timeout.
const defaultHTTPTimeout = 30 * time.Second

// Defaults returns the built-in handler for every step type.
func Defaults(deps Deps) map[workflow.StepType]workflow.StepHandler {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{
			Timeout:   defaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return map[workflow.StepType]workflow.StepHandler{
		workflow.StepPrompt:    &PromptHandler{Compiler: deps.Compiler},
		workflow.StepCondition: &ConditionHandler{Runner: deps.Runner},
		workflow.StepParallel:  &ParallelHandler{Runner: deps.Runner},
		workflow.StepDelay:     &DelayHandler{},
		workflow.StepTransform: &TransformHandler{},
		workflow.StepValidate:  &ValidateHandler{},
		workflow.StepAPICall:   &APICallHandler{Client: deps.HTTPClient, Limiter: deps.Limiter},
		workflow.StepCustom:    &CustomHandler{Funcs: deps.Custom},
	}
}
