package workflow

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration timeouts and delays are authored as Go duration strings
// ("30s", "1m30s") or bare integers (nanoseconds) in YAML/JSON documents.
type wireDuration time.Duration

func (d *wireDuration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = wireDuration(parsed)
	case int:
		*d = wireDuration(v)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// wireDefinition mirrors Definition with string-friendly durations.
type wireDefinition struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Version     string            `yaml:"version"`
	Steps       []wireStep        `yaml:"steps"`
	Inputs      map[string]string `yaml:"inputs"`
	Outputs     map[string]string `yaml:"outputs"`
	Timeout     wireDuration      `yaml:"timeout"`
	Retry       *wireRetryPolicy  `yaml:"retry"`
	Metadata    map[string]any    `yaml:"metadata"`
}

type wireRetryPolicy struct {
	MaxAttempts int          `yaml:"max_attempts"`
	BaseDelay   wireDuration `yaml:"base_delay"`
	Multiplier  float64      `yaml:"multiplier"`
	MaxDelay    wireDuration `yaml:"max_delay"`
}

type wireStep struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Type        StepType       `yaml:"type"`
	Timeout     wireDuration   `yaml:"timeout"`
	Retries     int            `yaml:"retries"`
	Metadata    map[string]any `yaml:"metadata"`

	Prompt    *PromptStep    `yaml:"prompt"`
	Condition *ConditionStep `yaml:"condition"`
	Parallel  *ParallelStep  `yaml:"parallel"`
	Delay     *wireDelayStep `yaml:"delay"`
	Transform *TransformStep `yaml:"transform"`
	Validate  *ValidateStep  `yaml:"validate"`
	APICall   *APICallStep   `yaml:"api_call"`
	Custom    *CustomStep    `yaml:"custom"`
}

type wireDelayStep struct {
	Duration wireDuration `yaml:"duration"`
}

// Load parses a workflow definition from YAML (or JSON, a YAML subset)
// and validates it.
func Load(data []byte) (*Definition, error) {
	var wire wireDefinition
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse workflow definition: %w", err)
	}

	def := &Definition{
		ID:          wire.ID,
		Name:        wire.Name,
		Description: wire.Description,
		Version:     wire.Version,
		Inputs:      wire.Inputs,
		Outputs:     wire.Outputs,
		Timeout:     time.Duration(wire.Timeout),
		Metadata:    wire.Metadata,
	}
	if wire.Retry != nil {
		def.Retry = &RetryPolicy{
			MaxAttempts: wire.Retry.MaxAttempts,
			BaseDelay:   time.Duration(wire.Retry.BaseDelay),
			Multiplier:  wire.Retry.Multiplier,
			MaxDelay:    time.Duration(wire.Retry.MaxDelay),
		}
	}

	def.Steps = make([]Step, 0, len(wire.Steps))
	for _, ws := range wire.Steps {
		step := Step{
			ID:          ws.ID,
			Name:        ws.Name,
			Description: ws.Description,
			Type:        ws.Type,
			Timeout:     time.Duration(ws.Timeout),
			Retries:     ws.Retries,
			Metadata:    ws.Metadata,
			Prompt:      ws.Prompt,
			Condition:   ws.Condition,
			Parallel:    ws.Parallel,
			Transform:   ws.Transform,
			Validate:    ws.Validate,
			APICall:     ws.APICall,
			Custom:      ws.Custom,
		}
		if ws.Delay != nil {
			step.Delay = &DelayStep{Duration: time.Duration(ws.Delay.Duration)}
		}
		def.Steps = append(def.Steps, step)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// LoadFile reads and parses a workflow definition from a file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow definition %s: %w", path, err)
	}
	return Load(data)
}
