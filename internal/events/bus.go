package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Handlers run asynchronously, so
// publishing never blocks the event loop.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(PatternStartedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case LEDStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LEDLockChangedEvent:
		event.Publish(b.dispatcher, e)
	case PatternStartedEvent:
		event.Publish(b.dispatcher, e)
	case PatternStoppedEvent:
		event.Publish(b.dispatcher, e)
	case DefinitionsReloadedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e LEDStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(LEDStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LEDLockChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PatternStartedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PatternStoppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DefinitionsReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
