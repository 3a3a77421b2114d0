package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua scripts keep the value keys and the recency index consistent.
var (
	// KEYS[1]: recency zset, KEYS[2]: value key
	// ARGV[1]: value, ARGV[2]: ttl ms, ARGV[3]: now ms, ARGV[4]: capacity
	setScript = redis.NewScript(`
		redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', tonumber(ARGV[3]) - tonumber(ARGV[2]))
		redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
		redis.call('ZADD', KEYS[1], ARGV[3], KEYS[2])
		local overflow = redis.call('ZCARD', KEYS[1]) - tonumber(ARGV[4])
		if overflow > 0 then
			for _, member in ipairs(redis.call('ZRANGE', KEYS[1], 0, -1)) do
				if redis.call('EXISTS', member) == 0 then
					redis.call('ZREM', KEYS[1], member)
					overflow = overflow - 1
				end
			end
		end
		local evicted = 0
		if overflow > 0 then
			local victims = redis.call('ZPOPMIN', KEYS[1], overflow)
			for i = 1, #victims, 2 do
				redis.call('DEL', victims[i])
				evicted = evicted + 1
			end
		end
		return evicted
	`)

	// KEYS[1]: recency zset, KEYS[2]: value key
	// ARGV[1]: now ms
	getScript = redis.NewScript(`
		local value = redis.call('GET', KEYS[2])
		if not value then
			redis.call('ZREM', KEYS[1], KEYS[2])
			return false
		end
		redis.call('ZADD', KEYS[1], 'XX', 'GT', ARGV[1], KEYS[2])
		return value
	`)

	// KEYS[1]: recency zset
	lenScript = redis.NewScript(`
		for _, member in ipairs(redis.call('ZRANGE', KEYS[1], 0, -1)) do
			if redis.call('EXISTS', member) == 0 then
				redis.call('ZREM', KEYS[1], member)
			end
		end
		return redis.call('ZCARD', KEYS[1])
	`)

	// KEYS[1]: recency zset, KEYS[2]: value key
	deleteScript = redis.NewScript(`
		redis.call('ZREM', KEYS[1], KEYS[2])
		return redis.call('DEL', KEYS[2])
	`)
)

// RedisCache shares the response cache between proxy replicas. Each entry is
// a string key with a PX expiry; a sorted set scored by last access time
// provides LRU eviction at capacity.
type RedisCache struct {
	client    *redis.Client
	namespace string
	capacity  int
	ttl       time.Duration
}

// NewRedisCache creates a Redis-backed cache under namespace.
func NewRedisCache(client *redis.Client, namespace string, capacity int, ttl time.Duration) (*RedisCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if ttl < time.Millisecond {
		return nil, fmt.Errorf("cache ttl must be at least 1ms, got %s", ttl)
	}
	if namespace == "" {
		namespace = "consizen"
	}
	return &RedisCache{
		client:    client,
		namespace: namespace,
		capacity:  capacity,
		ttl:       ttl,
	}, nil
}

func (r *RedisCache) indexKey() string {
	return r.namespace + ":lru"
}

func (r *RedisCache) valueKey(key string) string {
	return r.namespace + ":" + key
}

// Get returns the live value for key and records the access for LRU ordering.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := getScript.Run(ctx, r.client,
		[]string{r.indexKey(), r.valueKey(key)},
		time.Now().UnixMilli(),
	).Text()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis cache get: %w", err)
	}
	return value, true, nil
}

// Set writes value with a fresh ttl and trims the least recently used entries
// beyond capacity.
func (r *RedisCache) Set(ctx context.Context, key, value string) error {
	err := setScript.Run(ctx, r.client,
		[]string{r.indexKey(), r.valueKey(key)},
		value, r.ttl.Milliseconds(), time.Now().UnixMilli(), r.capacity,
	).Err()
	if err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	err := deleteScript.Run(ctx, r.client, []string{r.indexKey(), r.valueKey(key)}).Err()
	if err != nil {
		return fmt.Errorf("redis cache delete: %w", err)
	}
	return nil
}

// Len drops index members whose value keys have expired and counts the rest.
func (r *RedisCache) Len(ctx context.Context) (int, error) {
	n, err := lenScript.Run(ctx, r.client, []string{r.indexKey()}).Int()
	if err != nil {
		return 0, fmt.Errorf("redis cache len: %w", err)
	}
	return n, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close is a no-op; the redis client is owned by the caller.
func (r *RedisCache) Close() error {
	return nil
}
