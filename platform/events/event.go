// Package events is the in-process event bus the modules talk over:
// lead status changes, completed tasks and enrichment results travel as
// events instead of direct calls. It is platform plumbing only and
// knows nothing about leads or tasks.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event carried on the bus.
type Event interface {
	// EventName identifies the event type and is the subscription key.
	EventName() string
	// OccurredAt is the moment the event happened.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by every concrete event.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt is the moment the event happened.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a BaseEvent with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events and fans them out to subscribers.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its
	// name. Delivery is asynchronous; publish never blocks on handlers.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler,
	// returning the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matched
	// against Event.EventName() at dispatch.
	Subscribe(eventName string, handler Handler)
}
