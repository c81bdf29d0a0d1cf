// Package events provides event bus infrastructure.
// The in-memory bus dispatches to subscribers within the same process.
package events

import (
	"context"
	"errors"
	"sync"

	"prospect_backend/platform/logger"
)

// InMemoryBus is a simple in-process event bus. Async handlers run in
// their own goroutine; panics are recovered and logged so one bad
// subscriber cannot take down the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(handlers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	for _, h := range handlers {
		handler := h
		go func() {
			defer b.recoverPanic(event.EventName())
			if err := handler.Handle(context.WithoutCancel(ctx), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for all handlers, joining errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(handlers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryBus) recoverPanic(eventName string) {
	if r := recover(); r != nil && b.log != nil {
		b.log.Error("event handler panicked", "event", eventName, "panic", r)
	}
}
