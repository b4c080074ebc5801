package rolewatch

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes every event as a JSON EventRecord on a Redis channel.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	sink := rolewatch.NewRedisSink(client, cfg.RedisChannel, logger)
type RedisSink struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewRedisSink creates a RedisSink. A nil logger uses slog.Default().
func NewRedisSink(client redis.UniversalClient, channel string, logger *slog.Logger) *RedisSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSink{client: client, channel: channel, logger: logger}
}

// Channel returns the channel events are published on.
func (r *RedisSink) Channel() string {
	return r.channel
}

// Dispatch implements Sink. Publish failures are logged.
func (r *RedisSink) Dispatch(ctx context.Context, e Event) {
	if err := r.Publish(ctx, e); err != nil {
		r.logger.Error("rolewatch: redis publish failed",
			slog.String("channel", r.channel),
			slog.String("event", e.Name()),
			slog.String("event_id", e.ID),
			slog.Any("error", err),
		)
	}
}

// Publish sends e and returns the publish error, if any.
func (r *RedisSink) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e.Record())
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Ping implements HealthChecker.
func (r *RedisSink) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// DecodeRecord parses a payload produced by RedisSink or QueueSink.
func DecodeRecord(payload []byte) (EventRecord, error) {
	var rec EventRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return EventRecord{}, err
	}
	return rec, nil
}
