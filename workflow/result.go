package workflow

import "time"

// StepExecution is an immutable-once-written record of one step's attempt.
type StepExecution struct {
	StepID      string         `json:"step_id"`
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Duration    time.Duration  `json:"duration"`
	Input       any            `json:"input,omitempty"`
	Output      any            `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	Attempts    int            `json:"attempts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Result is the terminal summary of one workflow execution. Failures are
// always reported here rather than as an error from the engine's Execute.
type Result struct {
	ExecutionID    string          `json:"execution_id"`
	WorkflowID     string          `json:"workflow_id"`
	Success        bool            `json:"success"`
	Status         Status          `json:"status"`
	Outputs        map[string]any  `json:"outputs"`
	Duration       time.Duration   `json:"duration"`
	StepExecutions []StepExecution `json:"step_executions"`
	Error          string          `json:"error,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    time.Time       `json:"completed_at"`
}
