package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/AltairaLabs/FlowKit/workflow"
)

// ErrNoCompiler is returned when a prompt step runs on an engine that was
// built without a prompt compiler.
var ErrNoCompiler = errors.New("no prompt compiler configured")

// PromptHandler compiles a prompt template with the execution's variables
// merged under the step's declared variables and returns the text.
type PromptHandler struct {
	Compiler PromptCompiler
}

// Execute renders the step's template.
func (h *PromptHandler) Execute(ctx context.Context, step *workflow.Step, ec *workflow.ExecutionContext) (any, error) {
	if h.Compiler == nil {
		return nil, ErrNoCompiler
	}

	// Context variables first, step-declared variables override.
	vars := make(map[string]string)
	for key, value := range ec.Variables() {
		vars[key] = stringify(value)
	}
	for key, value := range step.Prompt.Variables {
		vars[key] = value
	}

	text, err := h.Compiler.Compile(ctx, step.Prompt.TemplateID, vars)
	if err != nil {
		return nil, fmt.Errorf("compile prompt %q: %w", step.Prompt.TemplateID, err)
	}
	return text, nil
}

// ValidateStep rejects prompt steps with no template reference.
func (h *PromptHandler) ValidateStep(step *workflow.Step, _ any) bool {
	return step.Prompt != nil && step.Prompt.TemplateID != ""
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
