package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// streamMaxLen bounds the library stream. Trimming is approximate (XADD
// MAXLEN ~) and only drops entries far older than anything a live worker
// still needs.
const streamMaxLen = 100_000

// Publisher appends library events to a stream.
type Publisher interface {
	Publish(ctx context.Context, stream string, event LibraryEvent) (messageID string, err error)
}

type redisPublisher struct {
	client *redis.Client
	maxLen int64
}

func NewPublisher(client *redis.Client) Publisher {
	return &redisPublisher{client: client, maxLen: streamMaxLen}
}

func (p *redisPublisher) Publish(ctx context.Context, stream string, event LibraryEvent) (string, error) {
	start := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize %s event: %w", event.Type, err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}

	log.Printf("[Publisher] %s -> %s id=%s isbn=%s user=%s (%v)",
		event.Type, stream, id, event.ISBN, event.UserID, time.Since(start))
	return id, nil
}

// Publish sends event to the library stream once the caller's own write has
// committed. A nil publisher disables events; failures are only logged.
func Publish(ctx context.Context, p Publisher, component string, event LibraryEvent) {
	if p == nil {
		return
	}
	if _, err := p.Publish(ctx, StreamLibrary, event); err != nil {
		log.Printf("[%s] Publish %s FAILED: isbn=%s user=%s err=%v",
			component, event.Type, event.ISBN, event.UserID, err)
	}
}
