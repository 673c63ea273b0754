package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// EventForwarder moves events to a slow sink, such as the Redis stream, off
// the request path. Events are delivered in publish order by one goroutine.
type EventForwarder struct {
	sink   events.EventHandler
	logger *zap.Logger
	queue  chan events.Event

	wg       sync.WaitGroup
	stopOnce sync.Once
	mu       sync.RWMutex
	stopped  bool
}

// NewEventForwarder builds a forwarder holding up to buffer pending events.
func NewEventForwarder(sink events.EventHandler, logger *zap.Logger, buffer int) *EventForwarder {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventForwarder{
		sink:   sink,
		logger: logger,
		queue:  make(chan events.Event, buffer),
	}
}

// Start launches the delivery goroutine.
func (f *EventForwarder) Start() {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for event := range f.queue {
			if err := f.sink(context.Background(), event); err != nil {
				f.logger.Warn("event forward failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
}

// Enqueue implements events.EventHandler. Events are dropped, with a warning,
// when the queue is full or the forwarder was stopped.
func (f *EventForwarder) Enqueue(_ context.Context, event events.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.stopped {
		return nil
	}
	select {
	case f.queue <- event:
	default:
		f.logger.Warn("event forward queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}
	return nil
}

// Stop delivers the queued events and waits for the goroutine to exit.
func (f *EventForwarder) Stop() {
	f.stopOnce.Do(func() {
		f.mu.Lock()
		f.stopped = true
		close(f.queue)
		f.mu.Unlock()
	})
	f.wg.Wait()
}
