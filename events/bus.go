// Package events provides a lightweight pub/sub event bus for engine
// observability.
//
// Delivery is synchronous: Publish invokes every matching listener before
// returning, so listeners observe events in emission order within one
// execution. A listener panicking is recovered and logged, never
// propagated — observability code is isolated from execution correctness.
package events

import (
	"sync"

	"github.com/AltairaLabs/FlowKit/logger"
)

// Listener is a function that handles events. Listeners must not block;
// they run inline on the emitting execution's goroutine.
type Listener func(*Event)

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	bus       *Bus
	eventType Type // zero value means a global subscription
	id        uint64
	global    bool
}

// Cancel removes the subscription's listener from the bus. Cancelling an
// already-cancelled subscription is a no-op.
func (s Subscription) Cancel() {
	if s.bus != nil {
		s.bus.unsubscribe(s)
	}
}

type entry struct {
	id uint64
	fn Listener
}

// Bus manages event distribution to listeners.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	typed  map[Type][]entry
	global []entry
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{typed: make(map[Type][]entry)}
}

// Subscribe registers a listener for a specific event type and returns a
// Subscription used to remove it.
func (b *Bus) Subscribe(eventType Type, listener Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.typed[eventType] = append(b.typed[eventType], entry{id: b.nextID, fn: listener})
	return Subscription{bus: b, eventType: eventType, id: b.nextID}
}

// SubscribeAll registers a listener for every event type.
func (b *Bus) SubscribeAll(listener Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.global = append(b.global, entry{id: b.nextID, fn: listener})
	return Subscription{bus: b, id: b.nextID, global: true}
}

func (b *Bus) unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.global {
		b.global = removeEntry(b.global, s.id)
		return
	}
	b.typed[s.eventType] = removeEntry(b.typed[s.eventType], s.id)
}

func removeEntry(entries []entry, id uint64) []entry {
	for i := range entries {
		if entries[i].id == id {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}

// Publish delivers an event to all listeners registered for its type,
// then to all global listeners, synchronously and in registration order.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	typed := make([]entry, len(b.typed[event.Type]))
	copy(typed, b.typed[event.Type])
	global := make([]entry, len(b.global))
	copy(global, b.global)
	b.mu.RUnlock()

	for _, e := range typed {
		safeInvoke(e.fn, event)
	}
	for _, e := range global {
		safeInvoke(e.fn, event)
	}
}

// ListenerCount returns the total number of registered listeners.
func (b *Bus) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.global)
	for _, entries := range b.typed {
		n += len(entries)
	}
	return n
}

// Clear removes all listeners (primarily for tests).
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.typed = make(map[Type][]entry)
	b.global = nil
}

func safeInvoke(listener Listener, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event listener panic",
				"event_type", string(event.Type),
				"execution_id", event.ExecutionID,
				"panic", r,
			)
		}
	}()
	listener(event)
}
