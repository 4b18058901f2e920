package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"bookshelf/internal/cache"
)

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}
	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	client.FlushDB(context.Background())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestSearchCache_MissThenHit(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	c := cache.NewSearchCache(client)

	_, ok, err := c.Get(ctx, "Keyword|Book|1|10|almond")
	if err != nil {
		t.Fatalf("Get on miss: %v", err)
	}
	if ok {
		t.Fatal("expected a miss on an empty cache")
	}

	if err := c.Set(ctx, "Keyword|Book|1|10|almond", []byte(`{"item":[]}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, ok, err := c.Get(ctx, "Keyword|Book|1|10|almond")
	if err != nil || !ok {
		t.Fatalf("Get after Set = (%v, %v)", ok, err)
	}
	if string(raw) != `{"item":[]}` {
		t.Errorf("cached value = %s", raw)
	}

	ttl := client.TTL(ctx, cache.SearchCachePrefix+"Keyword|Book|1|10|almond").Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, want within (0, 1m]", ttl)
	}
}
