package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SearchCachePrefix is the key prefix for cached catalog searches
	SearchCachePrefix = "catalog:search:"

	// DefaultSearchCacheTTL applies when the caller passes no TTL
	DefaultSearchCacheTTL = 10 * time.Minute
)

// RedisSearchCache stores serialized catalog search results as plain string
// keys with a TTL. It satisfies catalog.ResponseCache.
type RedisSearchCache struct {
	client *redis.Client
}

func NewSearchCache(client *redis.Client) *RedisSearchCache {
	return &RedisSearchCache{client: client}
}

func searchKey(key string) string {
	return SearchCachePrefix + key
}

// Get returns (nil, false, nil) on a miss.
func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, searchKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get search cache: %w", err)
	}
	return raw, true, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSearchCacheTTL
	}
	if err := c.client.Set(ctx, searchKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("set search cache: %w", err)
	}
	return nil
}
