package catalog

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// ResponseCache stores serialized search results.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedClient serves repeated searches from a cache. Cache failures fall
// through to the upstream search.
type CachedClient struct {
	next  Searcher
	cache ResponseCache
	ttl   time.Duration
}

func NewCachedClient(next Searcher, cache ResponseCache, ttl time.Duration) *CachedClient {
	return &CachedClient{next: next, cache: cache, ttl: ttl}
}

func (c *CachedClient) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Query == "" {
		return nil, ErrMissingQuery
	}
	params = params.withDefaults()
	key := params.cacheKey()

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		log.Printf("[Catalog] cache get FAILED: key=%q err=%v", key, err)
	} else if ok {
		var cached SearchResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	result, err := c.next.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			log.Printf("[Catalog] cache set FAILED: key=%q err=%v", key, err)
		}
	}
	return result, nil
}
