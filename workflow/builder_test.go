package workflow

import (
	"errors"
	"testing"
	"time"
)

func TestBuilderLinear(t *testing.T) {
	def, err := NewBuilder("enrich", "Enrich record").
		WithDescription("Fetch a record and compute totals").
		WithVersion("2.1.0").
		WithTimeout(time.Minute).
		WithInput("record_id", "string").
		AddAPICallStep("fetch", "Fetch record", "https://api.example.com/records/1", "GET", nil, nil, "data").
		SetStepTimeout(10*time.Second).
		AddTransformStep("total", "Compute total", "input.amount * input.quantity", "fetch", "order_total").
		SetStepRetries(2).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if def.ID != "enrich" || def.Version != "2.1.0" {
		t.Errorf("unexpected definition identity: %q %q", def.ID, def.Version)
	}
	if len(def.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(def.Steps))
	}
	if def.Steps[0].Timeout != 10*time.Second {
		t.Errorf("SetStepTimeout not applied: %v", def.Steps[0].Timeout)
	}
	if def.Steps[1].Retries != 2 {
		t.Errorf("SetStepRetries not applied: %d", def.Steps[1].Retries)
	}
	if def.Inputs["record_id"] != "string" {
		t.Errorf("input hint not recorded")
	}
}

func TestBuilderEveryStepType(t *testing.T) {
	def, err := NewBuilder("kitchen-sink", "Everything").
		AddPromptStep("prompt", "Prompt", "greeting", map[string]string{"name": "Ada"}).
		AddCustomStep("left", "Left", "fn", nil).
		AddCustomStep("right", "Right", "fn", nil).
		AddConditionStep("pick", "Pick", "inputs.flag", "left", "right").
		AddParallelStep("both", "Both", []string{"left", "right"}, true).
		AddDelayStep("wait", "Wait", 5*time.Second).
		AddTransformStep("shape", "Shape", "input", "", "").
		AddValidationStep("check", "Check", "input != nil", nil).
		AddAPICallStep("call", "Call", "https://example.com", "POST", map[string]string{"X-Env": "test"}, map[string]any{"k": "v"}, "").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(def.Steps) != 9 {
		t.Fatalf("expected 9 steps, got %d", len(def.Steps))
	}
}

func TestBuilderRejectsDuplicateIDs(t *testing.T) {
	_, err := NewBuilder("dup", "Dup").
		AddDelayStep("same", "One", time.Second).
		AddDelayStep("same", "Two", time.Second).
		Build()
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestBuilderRejectsMissingIdentity(t *testing.T) {
	if _, err := NewBuilder("", "No ID").Build(); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("expected error for missing ID, got %v", err)
	}
	if _, err := NewBuilder("no-name", "").Build(); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("expected error for missing name, got %v", err)
	}
}

func TestBuilderRejectsDanglingReferences(t *testing.T) {
	_, err := NewBuilder("dangling", "Dangling").
		AddConditionStep("pick", "Pick", "true", "ghost", "").
		Build()
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for unknown branch target, got %v", err)
	}

	_, err = NewBuilder("dangling-par", "Dangling parallel").
		AddParallelStep("fan", "Fan", []string{"ghost"}, true).
		Build()
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for unknown parallel child, got %v", err)
	}
}

func TestBuilderRejectsMismatchedPayload(t *testing.T) {
	_, err := NewBuilder("mismatch", "Mismatch").
		AddStep(Step{ID: "odd", Name: "Odd", Type: StepPrompt}).
		Build()
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition for missing payload, got %v", err)
	}
}

func TestBuildCopiesSteps(t *testing.T) {
	b := NewBuilder("copied", "Copied").
		AddDelayStep("wait", "Wait", time.Second)
	def, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Further builder use must not leak into the built definition.
	b.AddDelayStep("later", "Later", time.Second)
	if len(def.Steps) != 1 {
		t.Errorf("built definition mutated by later builder use: %d steps", len(def.Steps))
	}
}
