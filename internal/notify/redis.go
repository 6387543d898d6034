package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/vanshika/bizflow/internal/logging"
)

// RedisPublisher broadcasts events over a Redis pub/sub channel so that
// every API instance can deliver them to its own observers.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher publishes to channel on rdb.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Broadcast publishes ev as JSON.
func (p *RedisPublisher) Broadcast(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// RunRelay forwards events published on channel into local until ctx is
// cancelled. It only returns an error when the subscription cannot be set up.
func RunRelay(ctx context.Context, rdb *redis.Client, channel string, local Broadcaster, logger *slog.Logger) error {
	logger = logging.Component(logger, "relay").With("channel", channel)

	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	logger.Info("event relay subscribed")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("discarding malformed event", "error", err)
				continue
			}
			if err := local.Broadcast(ctx, ev); err != nil {
				logger.Warn("relay broadcast failed", "event_id", ev.ID, "error", err)
			}
		}
	}
}
