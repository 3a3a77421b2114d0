// Package cache stores successful generation results keyed by task and prompt.
package cache

import (
	"context"
	"fmt"

	"github.com/Egham-7/consizen-proxy/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// ResponseCache is a bounded, expiring store of generated text.
// Implementations are safe for concurrent use; concurrent writes to the same
// key resolve as last write wins.
type ResponseCache interface {
	// Get returns the live value for key. Expired entries are reported as misses.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set creates or replaces the entry for key, refreshing its expiry and recency.
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Len returns the number of live entries.
	Len(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// New creates the response cache selected by cfg. The redis backend requires a
// connected client; the caller keeps ownership of it.
func New(cfg models.CacheConfig, redisClient *redis.Client) (ResponseCache, error) {
	switch cfg.Backend {
	case models.CacheBackendMemory, "":
		fiberlog.Infof("ResponseCache: Using in-memory LRU backend (capacity=%d, ttl=%s)", cfg.Capacity, cfg.TTL)
		return NewMemoryCache(cfg.Capacity, cfg.TTL)

	case models.CacheBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis backend selected but no redis client is available")
		}
		fiberlog.Infof("ResponseCache: Using Redis backend (namespace=%s, capacity=%d, ttl=%s)", cfg.Namespace, cfg.Capacity, cfg.TTL)
		return NewRedisCache(redisClient, cfg.Namespace, cfg.Capacity, cfg.TTL)

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (supported: redis, memory)", cfg.Backend)
	}
}
