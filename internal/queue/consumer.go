package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"seatserve/internal/model"
)

// Message is one alert event read from the stream, with the Redis message id
// needed for acknowledgement.
type Message struct {
	ID    string
	Event model.AlertEvent
}

// Consumer reads alert events from the stream as part of a consumer group.
type Consumer interface {
	// EnsureGroup creates the consumer group if it does not exist. Call at
	// worker startup.
	EnsureGroup(ctx context.Context) error

	// Read returns up to count new messages, blocking up to block for them.
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns messages delivered to this consumer but never
	// acknowledged, for crash recovery at startup.
	ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error)

	// Ack removes processed messages from the pending list.
	Ack(ctx context.Context, messageIDs ...string) error
}

// ConsumerName derives the stream consumer name for a worker host. The name
// must be stable across restarts: pending entries live under the consumer
// name that read them, so a renamed process would never see the messages its
// predecessor left unacknowledged.
func ConsumerName(hostname string) string {
	if hostname == "" {
		hostname = "local"
	}
	return "worker-" + hostname
}

// RedisConsumer implements Consumer on Redis Streams.
type RedisConsumer struct {
	client *redis.Client
	stream string
	group  string
	logger *zap.Logger
}

func NewConsumer(client *redis.Client, logger *zap.Logger) *RedisConsumer {
	return &RedisConsumer{
		client: client,
		stream: StreamAlerts,
		group:  ConsumerGroupAlert,
		logger: logger,
	}
}

// EnsureGroup creates the group with MKSTREAM from the beginning of the
// stream. BUSYGROUP means it already exists, which is fine.
func (c *RedisConsumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil {
		if err.Error() == "BUSYGROUP Consumer Group name already exists" {
			return nil
		}
		return fmt.Errorf("create consumer group: %w", err)
	}
	c.logger.Info("created consumer group",
		zap.String("stream", c.stream),
		zap.String("group", c.group))
	return nil
}

// Read fetches new messages with XREADGROUP. redis.Nil on a block timeout is
// not an error; the caller just polls again.
func (c *RedisConsumer) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.read(ctx, consumer, ">", count, block)
}

// ReadPending re-reads this consumer's unacknowledged messages ("0" instead
// of ">").
func (c *RedisConsumer) ReadPending(ctx context.Context, consumer string, count int64) ([]Message, error) {
	return c.read(ctx, consumer, "0", count, 0)
}

func (c *RedisConsumer) read(ctx context.Context, consumer, id string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: consumer,
		Streams:  []string{c.stream, id},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		for _, msg := range s.Messages {
			ev, err := ParseEvent(msg.Values)
			if err != nil {
				// Malformed messages are acked away rather than blocking the
				// group forever.
				c.logger.Warn("skip malformed message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
				_ = c.Ack(ctx, msg.ID)
				continue
			}
			messages = append(messages, Message{ID: msg.ID, Event: ev})
		}
	}
	return messages, nil
}

// Ack acknowledges messages with XACK.
func (c *RedisConsumer) Ack(ctx context.Context, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, c.stream, c.group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}
