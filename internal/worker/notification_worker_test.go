package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/config"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/service"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingSink) handle(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.events))
	for _, e := range r.events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestEventForwarderDeliversInOrderOnStop(t *testing.T) {
	sink := &recordingSink{}
	fwd := NewEventForwarder(sink.handle, zap.NewNop(), 8)
	fwd.Start()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, fwd.Enqueue(context.Background(), events.Event{ID: id}))
	}
	fwd.Stop()

	assert.Equal(t, []string{"a", "b", "c"}, sink.ids())

	// enqueue after stop is a no-op and a second Stop does not panic
	require.NoError(t, fwd.Enqueue(context.Background(), events.Event{ID: "d"}))
	fwd.Stop()
	assert.Len(t, sink.ids(), 3)
}

func TestNotificationWorkerForwardsEveryEventType(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingSink{}
	fwd := NewEventForwarder(sink.handle, zap.NewNop(), 8)
	fwd.Start()

	notifications := service.NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{EmailFrom: "ops@example.com"}, fwd.Enqueue)
	StartNotificationWorker(notifications)

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "1", Type: events.EventFaultReported}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "2", Type: events.EventTicketCreated}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "3", Type: events.EventTicketAssigned}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "4", Type: events.EventTicketStatusChanged}))
	fwd.Stop()

	assert.Equal(t, []string{"1", "2", "3", "4"}, sink.ids())
}

func TestStartNotificationWorkerToleratesNil(t *testing.T) {
	StartNotificationWorker(nil)
}
