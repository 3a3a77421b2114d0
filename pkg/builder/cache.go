package builder

import (
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
)

func (b *Builder) WithMemoryCache(capacity int, ttl time.Duration) *Builder {
	b.cfg.Cache.Backend = models.CacheBackendMemory
	b.cfg.Cache.Capacity = capacity
	b.cfg.Cache.TTL = ttl
	return b
}

// WithRedisCache shares the response cache (and breaker state) through Redis.
func (b *Builder) WithRedisCache(redisURL string) *Builder {
	b.cfg.Cache.Backend = models.CacheBackendRedis
	b.cfg.Cache.RedisURL = redisURL
	return b
}

func (b *Builder) WithCacheKeyStrategy(strategy models.CacheKeyStrategy) *Builder {
	b.cfg.Cache.KeyStrategy = strategy
	return b
}
