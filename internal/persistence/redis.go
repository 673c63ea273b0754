package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/config"
	"github.com/spec-kit/repair-service/internal/events"
)

const redisPingTimeout = 2 * time.Second

// Redis wraps the go-redis client together with the event stream settings.
type Redis struct {
	Client *redis.Client

	stream       string
	streamMaxLen int64
}

// NewRedis connects to Redis. An unreachable server is logged, not fatal:
// readiness reports it and the event sink keeps retrying per event.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client, stream: cfg.EventStream, streamMaxLen: cfg.EventStreamMaxLen}
}

// EventSink returns a sink appending events to the configured stream.
func (r *Redis) EventSink() *events.StreamSink {
	return events.NewStreamSink(r.Client, r.stream, r.streamMaxLen)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
