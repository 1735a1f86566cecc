package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
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
// Usage: bus.Publish(ButtonPressedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ButtonPressedEvent:
		event.Publish(b.dispatcher, e)
	case ComponentStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case ComponentOutputEvent:
		event.Publish(b.dispatcher, e)
	case FrameStatsEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e ButtonPressedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ButtonPressedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ComponentStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ComponentOutputEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameStatsEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
