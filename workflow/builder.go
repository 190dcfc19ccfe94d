package workflow

import "time"

// Builder assembles workflow definitions fluently at runtime. Each Add*
// method appends a fully-formed step to the draft; Build validates the
// result and returns the finished Definition.
//
//	def, err := workflow.NewBuilder("enrich", "Enrich record").
//		AddAPICallStep("fetch", "Fetch record", "https://api.example.com/r/1", "GET", nil, nil, "data").
//		AddTransformStep("total", "Sum totals", "input.amount * input.quantity", "fetch", "").
//		Build()
type Builder struct {
	def Definition
}

// NewBuilder starts a definition draft with the given ID and display name.
func NewBuilder(id, name string) *Builder {
	return &Builder{def: Definition{ID: id, Name: name, Version: "1.0.0"}}
}

// WithDescription sets the definition description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.def.Description = desc
	return b
}

// WithVersion sets the definition version string.
func (b *Builder) WithVersion(version string) *Builder {
	b.def.Version = version
	return b
}

// WithTimeout sets the overall execution timeout.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.def.Timeout = d
	return b
}

// WithRetryPolicy sets the backoff policy used by per-step retries.
func (b *Builder) WithRetryPolicy(p RetryPolicy) *Builder {
	b.def.Retry = &p
	return b
}

// WithMetadata attaches free-form metadata to the definition.
func (b *Builder) WithMetadata(key string, value any) *Builder {
	if b.def.Metadata == nil {
		b.def.Metadata = make(map[string]any)
	}
	b.def.Metadata[key] = value
	return b
}

// WithInput declares an input shape hint (name to type description).
func (b *Builder) WithInput(name, hint string) *Builder {
	if b.def.Inputs == nil {
		b.def.Inputs = make(map[string]string)
	}
	b.def.Inputs[name] = hint
	return b
}

// AddStep appends an already-constructed step.
func (b *Builder) AddStep(step Step) *Builder {
	b.def.Steps = append(b.def.Steps, step)
	return b
}

// AddPromptStep appends a prompt invocation step.
func (b *Builder) AddPromptStep(id, name, templateID string, vars map[string]string) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepPrompt,
		Prompt: &PromptStep{TemplateID: templateID, Variables: vars},
	})
}

// AddConditionStep appends a conditional branch step.
func (b *Builder) AddConditionStep(id, name, expression, trueStep, falseStep string) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepCondition,
		Condition: &ConditionStep{Expression: expression, TrueStep: trueStep, FalseStep: falseStep},
	})
}

// AddParallelStep appends a fan-out step over previously declared steps.
func (b *Builder) AddParallelStep(id, name string, stepIDs []string, waitForAll bool) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepParallel,
		Parallel: &ParallelStep{Steps: stepIDs, WaitForAll: waitForAll},
	})
}

// AddDelayStep appends a fixed-duration pause step.
func (b *Builder) AddDelayStep(id, name string, d time.Duration) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepDelay,
		Delay: &DelayStep{Duration: d},
	})
}

// AddTransformStep appends an expression transform step.
func (b *Builder) AddTransformStep(id, name, expression, inputPath, outputPath string) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepTransform,
		Transform: &TransformStep{Expression: expression, InputPath: inputPath, OutputPath: outputPath},
	})
}

// AddValidationStep appends a schema/expression validation step.
func (b *Builder) AddValidationStep(id, name, expression string, schema map[string]any) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepValidate,
		Validate: &ValidateStep{Expression: expression, Schema: schema},
	})
}

// AddAPICallStep appends an HTTP request step.
func (b *Builder) AddAPICallStep(id, name, endpoint, method string, headers map[string]string, body any, extractPath string) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepAPICall,
		APICall: &APICallStep{Endpoint: endpoint, Method: method, Headers: headers, Body: body, ExtractPath: extractPath},
	})
}

// AddCustomStep appends a step delegating to a named custom function.
func (b *Builder) AddCustomStep(id, name, handler string, config map[string]any) *Builder {
	return b.AddStep(Step{
		ID: id, Name: name, Type: StepCustom,
		Custom: &CustomStep{Handler: handler, Config: config},
	})
}

// SetStepTimeout sets the per-step timeout on the most recently added step.
func (b *Builder) SetStepTimeout(d time.Duration) *Builder {
	if n := len(b.def.Steps); n > 0 {
		b.def.Steps[n-1].Timeout = d
	}
	return b
}

// SetStepRetries sets the retry count on the most recently added step.
func (b *Builder) SetStepRetries(retries int) *Builder {
	if n := len(b.def.Steps); n > 0 {
		b.def.Steps[n-1].Retries = retries
	}
	return b
}

// Build validates the draft and returns the finished definition.
func (b *Builder) Build() (*Definition, error) {
	def := b.def
	// Copy the step slice so further builder use cannot mutate the built
	// definition.
	def.Steps = make([]Step, len(b.def.Steps))
	copy(def.Steps, b.def.Steps)

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
