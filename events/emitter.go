package events

import "time"

// Emitter publishes engine events stamped with one execution's identity.
type Emitter struct {
	bus         *Bus
	workflowID  string
	executionID string
}

// NewEmitter creates an emitter bound to a workflow execution.
func NewEmitter(bus *Bus, workflowID, executionID string) *Emitter {
	return &Emitter{bus: bus, workflowID: workflowID, executionID: executionID}
}

func (e *Emitter) emit(eventType Type, stepID string, data Data) {
	if e == nil || e.bus == nil {
		return
	}
	e.bus.Publish(&Event{
		Type:        eventType,
		Timestamp:   time.Now(),
		WorkflowID:  e.workflowID,
		ExecutionID: e.executionID,
		StepID:      stepID,
		Data:        data,
	})
}

// WorkflowStarted emits the workflow.started event.
func (e *Emitter) WorkflowStarted(stepCount int, inputKeys []string) {
	e.emit(WorkflowStarted, "", &WorkflowStartedData{StepCount: stepCount, InputKeys: inputKeys})
}

// WorkflowCompleted emits the workflow.completed event.
func (e *Emitter) WorkflowCompleted(duration time.Duration, stepsRun int, outputKeys []string) {
	e.emit(WorkflowCompleted, "", &WorkflowCompletedData{Duration: duration, StepsRun: stepsRun, OutputKeys: outputKeys})
}

// WorkflowFailed emits the workflow.failed event.
func (e *Emitter) WorkflowFailed(err error, duration time.Duration) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.emit(WorkflowFailed, "", &WorkflowFailedData{Error: msg, Duration: duration})
}

// WorkflowCancelled emits the workflow.cancelled event.
func (e *Emitter) WorkflowCancelled(duration time.Duration) {
	e.emit(WorkflowCancelled, "", &WorkflowCancelledData{Duration: duration})
}

// WorkflowPaused emits the workflow.paused event.
func (e *Emitter) WorkflowPaused(afterStep string) {
	e.emit(WorkflowPaused, "", &WorkflowPausedData{AfterStep: afterStep})
}

// WorkflowResumed emits the workflow.resumed event.
func (e *Emitter) WorkflowResumed() {
	e.emit(WorkflowResumed, "", &WorkflowResumedData{})
}

// StepStarted emits the workflow.step.started event.
func (e *Emitter) StepStarted(stepID, stepType, stepName string) {
	e.emit(StepStarted, stepID, &StepStartedData{StepType: stepType, StepName: stepName})
}

// StepCompleted emits the workflow.step.completed event.
func (e *Emitter) StepCompleted(stepID, stepType string, duration time.Duration, attempts int) {
	e.emit(StepCompleted, stepID, &StepCompletedData{StepType: stepType, Duration: duration, Attempts: attempts})
}

// StepFailed emits the workflow.step.failed event.
func (e *Emitter) StepFailed(stepID, stepType string, err error, duration time.Duration, attempts int) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	e.emit(StepFailed, stepID, &StepFailedData{StepType: stepType, Error: msg, Duration: duration, Attempts: attempts})
}
