// Package workflow defines workflow definitions, steps, execution state,
// and results for the FlowKit execution engine.
//
// A workflow is a named, versioned, ordered list of typed steps. Steps are
// authored once (via the Builder or YAML/JSON loading) and are read-only
// during execution. All mutable run state lives in ExecutionContext.
package workflow

import (
	"fmt"
	"time"
)

// StepType identifies the kind of work a step performs.
type StepType string

// Step types understood by the engine's built-in handlers.
const (
	StepPrompt    StepType = "prompt"
	StepCondition StepType = "condition"
	StepParallel  StepType = "parallel"
	StepDelay     StepType = "delay"
	StepTransform StepType = "transform"
	StepValidate  StepType = "validate"
	StepAPICall   StepType = "api_call"
	StepCustom    StepType = "custom"
)

// Status is the lifecycle status of an execution or a single step attempt.
type Status string

// Status values.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusPaused    Status = "paused"
)

// RetryPolicy controls retry backoff. On a Definition it supplies the
// backoff parameters used for per-step retries (Step.Retries) and the
// defaults for runner-level whole-workflow retries.
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay" yaml:"base_delay"`
	Multiplier  float64       `json:"multiplier" yaml:"multiplier"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay"`
}

// DefaultRetryPolicy returns the backoff parameters used when a definition
// does not declare its own policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
	}
}

// Definition is an immutable-once-registered workflow template.
// Re-registering the same ID replaces the previous definition.
type Definition struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	Steps       []Step            `json:"steps" yaml:"steps"`
	Inputs      map[string]string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs     map[string]string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Retry       *RetryPolicy      `json:"retry,omitempty" yaml:"retry,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Step is one unit of work within a workflow. Type selects the payload:
// exactly one of the typed config fields must be set, matching Type.
type Step struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Type        StepType       `json:"type" yaml:"type"`
	Timeout     time.Duration  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Retries     int            `json:"retries,omitempty" yaml:"retries,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Prompt    *PromptStep    `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Condition *ConditionStep `json:"condition,omitempty" yaml:"condition,omitempty"`
	Parallel  *ParallelStep  `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	Delay     *DelayStep     `json:"delay,omitempty" yaml:"delay,omitempty"`
	Transform *TransformStep `json:"transform,omitempty" yaml:"transform,omitempty"`
	Validate  *ValidateStep  `json:"validate,omitempty" yaml:"validate,omitempty"`
	APICall   *APICallStep   `json:"api_call,omitempty" yaml:"api_call,omitempty"`
	Custom    *CustomStep    `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// PromptStep invokes the prompt compiler with a template and variables.
// Variables declared here override execution-context variables of the
// same name when the template is rendered.
type PromptStep struct {
	TemplateID string            `json:"template_id" yaml:"template_id"`
	Variables  map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// ConditionStep evaluates a boolean expression against the execution
// context and runs the branch step the result selects. Branch steps
// execute only through their condition, never in the top-level walk;
// the condition's output is the selected branch's output, or the boolean
// itself when the selected side declares no branch.
type ConditionStep struct {
	Expression string `json:"expression" yaml:"expression"`
	TrueStep   string `json:"true_step,omitempty" yaml:"true_step,omitempty"`
	FalseStep  string `json:"false_step,omitempty" yaml:"false_step,omitempty"`
}

// ParallelStep fans out to other steps of the same workflow. The listed
// steps execute only inside this group, never in the top-level walk.
type ParallelStep struct {
	Steps      []string `json:"steps" yaml:"steps"`
	WaitForAll bool     `json:"wait_for_all" yaml:"wait_for_all"`
}

// DelayStep suspends execution for a fixed duration and produces no output.
type DelayStep struct {
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// TransformStep applies an expression to a value. The value is taken from
// InputPath (a JMESPath expression over the context variables) when set,
// otherwise from the variable bound to this step's ID.
type TransformStep struct {
	Expression string `json:"expression" yaml:"expression"`
	InputPath  string `json:"input_path,omitempty" yaml:"input_path,omitempty"`
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
}

// ValidateStep checks a value against an optional JSON schema and an
// optional boolean expression, producing a structured outcome.
type ValidateStep struct {
	Expression string         `json:"expression,omitempty" yaml:"expression,omitempty"`
	InputPath  string         `json:"input_path,omitempty" yaml:"input_path,omitempty"`
	Schema     map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// APICallStep issues an HTTP request and returns the (optionally
// path-extracted) JSON response value.
type APICallStep struct {
	Endpoint    string            `json:"endpoint" yaml:"endpoint"`
	Method      string            `json:"method" yaml:"method"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body        any               `json:"body,omitempty" yaml:"body,omitempty"`
	ExtractPath string            `json:"extract_path,omitempty" yaml:"extract_path,omitempty"`
}

// CustomStep delegates to a caller-registered function by name.
type CustomStep struct {
	Handler string         `json:"handler" yaml:"handler"`
	Config  map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Step returns the step with the given ID, if present.
func (d *Definition) Step(id string) (*Step, bool) {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i], true
		}
	}
	return nil, false
}

// Validate checks structural integrity: IDs and names present, step IDs
// unique within the definition, and condition/parallel references
// resolving to existing steps.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: workflow ID is required", ErrInvalidDefinition)
	}
	if d.Name == "" {
		return fmt.Errorf("%w: workflow name is required", ErrInvalidDefinition)
	}

	seen := make(map[string]bool, len(d.Steps))
	for i := range d.Steps {
		s := &d.Steps[i]
		if s.ID == "" {
			return fmt.Errorf("%w: step %d has no ID", ErrInvalidDefinition, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate step ID %q", ErrInvalidDefinition, s.ID)
		}
		seen[s.ID] = true
		if err := s.validate(); err != nil {
			return err
		}
	}

	// Branch and fan-out targets must resolve.
	for i := range d.Steps {
		s := &d.Steps[i]
		switch s.Type {
		case StepCondition:
			for _, target := range []string{s.Condition.TrueStep, s.Condition.FalseStep} {
				if target != "" && !seen[target] {
					return fmt.Errorf("%w: condition step %q references unknown step %q",
						ErrInvalidDefinition, s.ID, target)
				}
			}
		case StepParallel:
			for _, target := range s.Parallel.Steps {
				if !seen[target] {
					return fmt.Errorf("%w: parallel step %q references unknown step %q",
						ErrInvalidDefinition, s.ID, target)
				}
				if target == s.ID {
					return fmt.Errorf("%w: parallel step %q references itself",
						ErrInvalidDefinition, s.ID)
				}
			}
		default:
		}
	}

	return nil
}

// validate checks that the step carries the payload matching its type.
func (s *Step) validate() error {
	var ok bool
	switch s.Type {
	case StepPrompt:
		ok = s.Prompt != nil && s.Prompt.TemplateID != ""
	case StepCondition:
		ok = s.Condition != nil && s.Condition.Expression != ""
	case StepParallel:
		ok = s.Parallel != nil && len(s.Parallel.Steps) > 0
	case StepDelay:
		ok = s.Delay != nil && s.Delay.Duration > 0
	case StepTransform:
		ok = s.Transform != nil && s.Transform.Expression != ""
	case StepValidate:
		ok = s.Validate != nil && (s.Validate.Expression != "" || s.Validate.Schema != nil)
	case StepAPICall:
		ok = s.APICall != nil && s.APICall.Endpoint != ""
	case StepCustom:
		ok = s.Custom != nil && s.Custom.Handler != ""
	default:
		return fmt.Errorf("%w: step %q has unknown type %q", ErrInvalidDefinition, s.ID, s.Type)
	}
	if !ok {
		return fmt.Errorf("%w: step %q is missing its %s configuration", ErrInvalidDefinition, s.ID, s.Type)
	}
	return nil
}
