package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCache caches fetched page bodies in Redis so repeated pipeline runs
// do not re-hit the source site. All methods are safe on a nil receiver,
// which is how the fetcher runs when no Redis URL is configured.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(redisURL string, ttl time.Duration) (*PageCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &PageCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (pc *PageCache) Close() error {
	if pc == nil || pc.client == nil {
		return nil
	}
	return pc.client.Close()
}

// Get returns the cached body for url, if present.
func (pc *PageCache) Get(ctx context.Context, url string) ([]byte, bool) {
	if pc == nil || pc.client == nil {
		return nil, false
	}
	body, err := pc.client.Get(ctx, key(url)).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

// Set stores a page body under its URL with the cache TTL. Failures are
// dropped; caching is best effort.
func (pc *PageCache) Set(ctx context.Context, url string, body []byte) {
	if pc == nil || pc.client == nil {
		return
	}
	pc.client.Set(ctx, key(url), body, pc.ttl)
}

func key(url string) string { return "nbastats:page:" + url }
