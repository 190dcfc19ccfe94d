package events

import "time"

// Type identifies the type of event emitted by the engine.
type Type string

const (
	// WorkflowStarted marks the creation of an execution context.
	WorkflowStarted Type = "workflow.started"
	// WorkflowCompleted marks a run finishing with every step successful.
	WorkflowCompleted Type = "workflow.completed"
	// WorkflowFailed marks a run halted by a step failure or engine error.
	WorkflowFailed Type = "workflow.failed"
	// WorkflowCancelled marks a run stopped by Cancel.
	WorkflowCancelled Type = "workflow.cancelled"
	// WorkflowPaused marks a run suspended by Pause.
	WorkflowPaused Type = "workflow.paused"
	// WorkflowResumed marks a paused run continuing.
	WorkflowResumed Type = "workflow.resumed"

	// StepStarted marks a step attempt beginning.
	StepStarted Type = "workflow.step.started"
	// StepCompleted marks a step finishing successfully.
	StepCompleted Type = "workflow.step.completed"
	// StepFailed marks a step failing after exhausting its retries.
	StepFailed Type = "workflow.step.failed"
)

// Data is a marker interface for event payloads.
type Data interface {
	eventData()
}

// Event is a notification delivered to listeners at defined lifecycle
// points of a workflow execution.
type Event struct {
	Type        Type
	Timestamp   time.Time
	WorkflowID  string
	ExecutionID string
	StepID      string
	Data        Data
}

type baseData struct{}

func (baseData) eventData() {}

// WorkflowStartedData accompanies WorkflowStarted.
type WorkflowStartedData struct {
	baseData
	StepCount int
	InputKeys []string
}

// WorkflowCompletedData accompanies WorkflowCompleted.
type WorkflowCompletedData struct {
	baseData
	Duration   time.Duration
	StepsRun   int
	OutputKeys []string
}

// WorkflowFailedData accompanies WorkflowFailed.
type WorkflowFailedData struct {
	baseData
	Error    string
	Duration time.Duration
}

// WorkflowCancelledData accompanies WorkflowCancelled.
type WorkflowCancelledData struct {
	baseData
	Duration time.Duration
}

// WorkflowPausedData accompanies WorkflowPaused.
type WorkflowPausedData struct {
	baseData
	AfterStep string
}

// WorkflowResumedData accompanies WorkflowResumed.
type WorkflowResumedData struct {
	baseData
}

// StepStartedData accompanies StepStarted.
type StepStartedData struct {
	baseData
	StepType string
	StepName string
}

// StepCompletedData accompanies StepCompleted.
type StepCompletedData struct {
	baseData
	StepType string
	Duration time.Duration
	Attempts int
}

// StepFailedData accompanies StepFailed.
type StepFailedData struct {
	baseData
	StepType string
	Error    string
	Duration time.Duration
	Attempts int
}
