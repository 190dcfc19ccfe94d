package prometheus

import (
	"github.com/AltairaLabs/FlowKit/events"
)

// Status constants for metric labels.
const (
	statusSuccess   = "success"
	statusError     = "error"
	statusCancelled = "cancelled"
)

// MetricsListener records engine events as Prometheus metrics. Register
// it on an engine's bus with SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
func (l *MetricsListener) Handle(event *events.Event) {
	switch event.Type {
	case events.WorkflowStarted:
		RecordWorkflowStart()
	case events.WorkflowCompleted:
		if data, ok := event.Data.(*events.WorkflowCompletedData); ok {
			RecordWorkflowEnd(event.WorkflowID, statusSuccess, data.Duration.Seconds())
		}
	case events.WorkflowFailed:
		if data, ok := event.Data.(*events.WorkflowFailedData); ok {
			RecordWorkflowEnd(event.WorkflowID, statusError, data.Duration.Seconds())
		}
	case events.WorkflowCancelled:
		if data, ok := event.Data.(*events.WorkflowCancelledData); ok {
			RecordWorkflowEnd(event.WorkflowID, statusCancelled, data.Duration.Seconds())
		}
	case events.StepCompleted:
		if data, ok := event.Data.(*events.StepCompletedData); ok {
			RecordStep(event.WorkflowID, data.StepType, statusSuccess, data.Duration.Seconds(), data.Attempts)
		}
	case events.StepFailed:
		if data, ok := event.Data.(*events.StepFailedData); ok {
			RecordStep(event.WorkflowID, data.StepType, statusError, data.Duration.Seconds(), data.Attempts)
		}
	default:
		// Pause, resume, and step-start events carry no metrics.
	}
}

// Listener returns an events.Listener that can be registered with a Bus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
