package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Client is the connection shared by the event publisher, the stream
// consumer and the search cache.
type Client struct {
	*redis.Client
}

// NewClient creates a client from redis://[:password@]host:port[/db].
// blockingReaders is the number of goroutines that will sit in XREADGROUP;
// each holds a pooled connection while blocked, so the pool is grown to keep
// room for ordinary commands.
func NewClient(redisURL string, blockingReaders int) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if blockingReaders > 0 {
		opts.PoolSize = blockingReaders + 4
	}

	return &Client{Client: redis.NewClient(opts)}, nil
}

// Ping checks the server answers within a few seconds.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.Options().Addr, err)
	}
	opts := c.Options()
	log.Printf("[Redis] Connected: addr=%s db=%d pool=%d", opts.Addr, opts.DB, opts.PoolSize)
	return nil
}
