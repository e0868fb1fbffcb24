package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"seatserve/internal/model"
)

// Publisher adds alert events to the stream.
type Publisher interface {
	// Publish appends the event and returns the message id assigned by Redis.
	Publish(ctx context.Context, ev model.AlertEvent) (string, error)
}

// RedisPublisher implements Publisher on Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, stream: StreamAlerts, logger: logger}
}

// Publish appends the event with XADD. "*" lets Redis assign the message id.
func (p *RedisPublisher) Publish(ctx context.Context, ev model.AlertEvent) (string, error) {
	values, err := ToMap(ev)
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		p.logger.Error("publish alert event",
			zap.String("stream", p.stream),
			zap.String("event_type", ev.Type),
			zap.Error(err))
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.logger.Debug("published alert event",
		zap.String("stream", p.stream),
		zap.String("event_type", ev.Type),
		zap.String("message_id", messageID))
	return messageID, nil
}

// Notify publishes the event and swallows failures, satisfying the
// fire-and-forget contract: a full or unreachable stream never fails the
// business operation that emitted the event.
func (p *RedisPublisher) Notify(ctx context.Context, ev model.AlertEvent) {
	if _, err := p.Publish(ctx, ev); err != nil {
		p.logger.Warn("drop alert event",
			zap.String("event_type", ev.Type),
			zap.String("member_id", ev.MemberID),
			zap.Error(err))
	}
}
