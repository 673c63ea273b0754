package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamSink appends events to a Redis stream for out-of-process consumers.
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamSink builds a sink. maxLen <= 0 leaves the stream untrimmed.
func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Handle implements EventHandler.
func (s *StreamSink) Handle(ctx context.Context, event Event) error {
	values, err := streamValues(event)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

func streamValues(event Event) (map[string]any, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	return map[string]any{
		"id":        event.ID,
		"type":      string(event.Type),
		"ticket_id": event.TicketID,
		"event":     string(body),
	}, nil
}
