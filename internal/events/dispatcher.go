package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans lifecycle events out to subscribers. Services publish only
// after the owning transaction has committed.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
	SubscribeAll(handler EventHandler)
}

type inMemoryDispatcher struct {
	mu       sync.RWMutex
	byType   map[EventType][]EventHandler
	wildcard []EventHandler
}

// NewInMemoryDispatcher returns a synchronous dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{byType: make(map[EventType][]EventHandler)}
}

// Publish runs the type's handlers in subscription order, then the wildcard
// ones. Every handler runs; their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := make([]EventHandler, 0, len(d.byType[event.Type])+len(d.wildcard))
	handlers = append(handlers, d.byType[event.Type]...)
	handlers = append(handlers, d.wildcard...)
	d.mu.RUnlock()

	var errs []error
	for _, handle := range handlers {
		if err := handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byType[eventType] = append(d.byType[eventType], handler)
}

// SubscribeAll registers a handler that receives every event type.
func (d *inMemoryDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wildcard = append(d.wildcard, handler)
}
