package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
id: order-pipeline
name: Order pipeline
version: 1.2.0
timeout: 2m
retry:
  max_attempts: 4
  base_delay: 500ms
  multiplier: 2
  max_delay: 10s
steps:
  - id: fetch
    name: Fetch order
    type: api_call
    timeout: 15s
    retries: 2
    api_call:
      endpoint: https://api.example.com/orders/1
      method: GET
      extract_path: data
  - id: premium
    name: Premium gate
    type: condition
    condition:
      expression: inputs.tier == "premium"
      true_step: discount
      false_step: standard
  - id: discount
    name: Discount
    type: transform
    transform:
      expression: "0.9"
  - id: standard
    name: Standard
    type: transform
    transform:
      expression: "1.0"
  - id: settle
    name: Settle
    type: delay
    delay:
      duration: 30s
`

func TestLoadYAML(t *testing.T) {
	def, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if def.ID != "order-pipeline" {
		t.Errorf("unexpected ID %q", def.ID)
	}
	if def.Timeout != 2*time.Minute {
		t.Errorf("timeout not parsed from duration string: %v", def.Timeout)
	}
	if def.Retry == nil || def.Retry.BaseDelay != 500*time.Millisecond || def.Retry.MaxAttempts != 4 {
		t.Errorf("retry policy not parsed: %+v", def.Retry)
	}
	if len(def.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(def.Steps))
	}

	fetch := def.Steps[0]
	if fetch.Type != StepAPICall || fetch.Timeout != 15*time.Second || fetch.Retries != 2 {
		t.Errorf("api_call step not parsed: %+v", fetch)
	}
	if fetch.APICall.ExtractPath != "data" {
		t.Errorf("extract_path not parsed: %q", fetch.APICall.ExtractPath)
	}

	gate := def.Steps[1]
	if gate.Condition == nil || gate.Condition.TrueStep != "discount" || gate.Condition.FalseStep != "standard" {
		t.Errorf("condition branches not parsed: %+v", gate.Condition)
	}

	settle := def.Steps[4]
	if settle.Delay == nil || settle.Delay.Duration != 30*time.Second {
		t.Errorf("delay duration not parsed: %+v", settle.Delay)
	}
}

func TestLoadRejectsInvalidDefinition(t *testing.T) {
	_, err := Load([]byte(`
id: broken
name: Broken
steps:
  - id: gate
    name: Gate
    type: condition
    condition:
      expression: "true"
      true_step: nowhere
`))
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := Load([]byte(`
id: bad
name: Bad
timeout: soon
steps: []
`))
	if err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	if _, err := Load([]byte("{:::")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	def, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if def.ID != "order-pipeline" {
		t.Errorf("unexpected ID %q", def.ID)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
