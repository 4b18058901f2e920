package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one stream entry decoded into an event.
type Message struct {
	ID    string // stream entry ID, e.g. "1702000000000-0"
	Event LibraryEvent
}

// Consumer reads a stream as one member of a consumer group.
type Consumer interface {
	// EnsureGroup creates the group, and the stream with it, when missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns entries not yet delivered to the group, waiting up to
	// block for new ones.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns entries delivered to this consumer and never acked.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	// Claim takes over entries that any consumer of the group has held
	// unacked for at least minIdle.
	Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, ids ...string) error

	// Pending counts the group's unacked entries.
	Pending(ctx context.Context, stream, group string) (int64, error)
}

type redisConsumer struct {
	client *redis.Client
}

func NewConsumer(client *redis.Client) Consumer {
	return &redisConsumer{client: client}
}

// EnsureGroup starts a new group at the beginning of the stream so events
// published before the first worker ran are still aggregated.
func (c *redisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("xgroup create %s/%s: %w", stream, group, err)
	}
	log.Printf("[Consumer] Group ready: stream=%s group=%s", stream, group)
	return nil
}

func (c *redisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.readGroup(ctx, stream, group, consumer, ">", count, block)
}

func (c *redisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	return c.readGroup(ctx, stream, group, consumer, "0", count, -1)
}

// readGroup runs XREADGROUP from start. A negative block returns at once.
func (c *redisConsumer) readGroup(ctx context.Context, stream, group, consumer, start string, count int64, block time.Duration) ([]Message, error) {
	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, start},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s/%s: %w", stream, group, err)
	}

	var entries []redis.XMessage
	for _, s := range res {
		entries = append(entries, s.Messages...)
	}
	return c.decode(ctx, stream, group, entries), nil
}

func (c *redisConsumer) Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error) {
	entries, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xautoclaim %s/%s: %w", stream, group, err)
	}
	if len(entries) > 0 {
		log.Printf("[Consumer] Claimed %d idle entries for %s", len(entries), consumer)
	}
	return c.decode(ctx, stream, group, entries), nil
}

// decode parses entries into events. Entries that do not parse are acked and
// dropped so they cannot sit in the pending list forever.
func (c *redisConsumer) decode(ctx context.Context, stream, group string, entries []redis.XMessage) []Message {
	messages := make([]Message, 0, len(entries))
	var bad []string
	for _, e := range entries {
		event, err := ParseLibraryEvent(e.Values)
		if err != nil {
			log.Printf("[Consumer] Dropping malformed entry %s: %v", e.ID, err)
			bad = append(bad, e.ID)
			continue
		}
		messages = append(messages, Message{ID: e.ID, Event: event})
	}
	if len(bad) > 0 {
		if err := c.Ack(ctx, stream, group, bad...); err != nil {
			log.Printf("[Consumer] %v", err)
		}
	}
	return messages
}

func (c *redisConsumer) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return fmt.Errorf("xack %s/%s (%d ids): %w", stream, group, len(ids), err)
	}
	return nil
}

func (c *redisConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	info, err := c.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending %s/%s: %w", stream, group, err)
	}
	return info.Count, nil
}
