package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(eventType Type) *Event {
	return &Event{
		Type:        eventType,
		Timestamp:   time.Now(),
		WorkflowID:  "wf",
		ExecutionID: "exec",
	}
}

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewBus()
	var got []*Event
	bus.Subscribe(WorkflowStarted, func(ev *Event) {
		got = append(got, ev)
	})

	bus.Publish(newEvent(WorkflowStarted))
	bus.Publish(newEvent(WorkflowCompleted))

	require.Len(t, got, 1)
	assert.Equal(t, WorkflowStarted, got[0].Type)
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()
	var count int
	bus.SubscribeAll(func(*Event) { count++ })

	bus.Publish(newEvent(WorkflowStarted))
	bus.Publish(newEvent(StepCompleted))
	bus.Publish(newEvent(WorkflowFailed))

	assert.Equal(t, 3, count)
}

func TestPublishIsSynchronousAndOrdered(t *testing.T) {
	bus := NewBus()
	var order []Type
	bus.SubscribeAll(func(ev *Event) {
		order = append(order, ev.Type)
	})

	for _, eventType := range []Type{WorkflowStarted, StepStarted, StepCompleted, WorkflowCompleted} {
		bus.Publish(newEvent(eventType))
	}

	// No synchronization needed: delivery happens inline on Publish.
	assert.Equal(t, []Type{WorkflowStarted, StepStarted, StepCompleted, WorkflowCompleted}, order)
}

func TestTypedListenersRunBeforeGlobal(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.SubscribeAll(func(*Event) { order = append(order, "global") })
	bus.Subscribe(WorkflowStarted, func(*Event) { order = append(order, "typed") })

	bus.Publish(newEvent(WorkflowStarted))

	assert.Equal(t, []string{"typed", "global"}, order)
}

func TestSubscriptionCancel(t *testing.T) {
	bus := NewBus()
	var count int
	sub := bus.Subscribe(WorkflowStarted, func(*Event) { count++ })

	bus.Publish(newEvent(WorkflowStarted))
	sub.Cancel()
	bus.Publish(newEvent(WorkflowStarted))

	assert.Equal(t, 1, count)

	// Cancelling twice is harmless.
	sub.Cancel()
	assert.Equal(t, 0, bus.ListenerCount())
}

func TestCancelRemovesOnlyOwnListener(t *testing.T) {
	bus := NewBus()
	var first, second int
	sub1 := bus.Subscribe(WorkflowStarted, func(*Event) { first++ })
	bus.Subscribe(WorkflowStarted, func(*Event) { second++ })

	sub1.Cancel()
	bus.Publish(newEvent(WorkflowStarted))

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestListenerPanicIsIsolated(t *testing.T) {
	bus := NewBus()
	var delivered bool
	bus.SubscribeAll(func(*Event) { panic("bad listener") })
	bus.SubscribeAll(func(*Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Publish(newEvent(WorkflowStarted))
	})
	assert.True(t, delivered, "a panicking listener must not block the rest")
}

func TestListenerCountAndClear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(WorkflowStarted, func(*Event) {})
	bus.Subscribe(WorkflowCompleted, func(*Event) {})
	bus.SubscribeAll(func(*Event) {})

	assert.Equal(t, 3, bus.ListenerCount())

	bus.Clear()
	assert.Equal(t, 0, bus.ListenerCount())
}

func TestEmitterStampsIdentity(t *testing.T) {
	bus := NewBus()
	var got *Event
	bus.SubscribeAll(func(ev *Event) { got = ev })

	emitter := NewEmitter(bus, "wf-1", "exec-1")
	emitter.StepCompleted("step-1", "transform", 100*time.Millisecond, 2)

	require.NotNil(t, got)
	assert.Equal(t, StepCompleted, got.Type)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, "exec-1", got.ExecutionID)
	assert.Equal(t, "step-1", got.StepID)
	assert.False(t, got.Timestamp.IsZero())

	data, ok := got.Data.(*StepCompletedData)
	require.True(t, ok)
	assert.Equal(t, "transform", data.StepType)
	assert.Equal(t, 2, data.Attempts)
}

func TestEmitterWorkflowLifecycle(t *testing.T) {
	bus := NewBus()
	var types []Type
	bus.SubscribeAll(func(ev *Event) { types = append(types, ev.Type) })

	emitter := NewEmitter(bus, "wf", "exec")
	emitter.WorkflowStarted(3, []string{"a"})
	emitter.WorkflowPaused("step-1")
	emitter.WorkflowResumed()
	emitter.WorkflowCancelled(time.Second)

	assert.Equal(t, []Type{WorkflowStarted, WorkflowPaused, WorkflowResumed, WorkflowCancelled}, types)
}
