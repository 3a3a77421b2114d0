package models

import "time"

// CacheBackendType represents the type of cache backend to use
type CacheBackendType string

const (
	CacheBackendRedis  CacheBackendType = "redis"
	CacheBackendMemory CacheBackendType = "memory"
)

// CacheKeyStrategy selects how a prompt is folded into a cache key.
type CacheKeyStrategy string

const (
	// CacheKeyPrefix keys on the task plus the first PrefixLength characters of the prompt.
	CacheKeyPrefix CacheKeyStrategy = "prefix"
	// CacheKeySHA256 keys on the task plus a digest of the whole prompt.
	CacheKeySHA256 CacheKeyStrategy = "sha256"
)

// CacheConfig holds configuration for the generation response cache
type CacheConfig struct {
	Backend      CacheBackendType `json:"backend,omitzero" yaml:"backend"`             // "memory" or "redis"
	RedisURL     string           `json:"redis_url,omitzero" yaml:"redis_url"`         // Required if backend is "redis"
	Capacity     int              `json:"capacity,omitzero" yaml:"capacity"`           // Maximum number of live entries
	TTL          time.Duration    `json:"ttl,omitzero" yaml:"ttl"`                     // Entry lifetime
	KeyStrategy  CacheKeyStrategy `json:"key_strategy,omitzero" yaml:"key_strategy"`   // "prefix" or "sha256"
	PrefixLength int              `json:"prefix_length,omitzero" yaml:"prefix_length"` // Characters of prompt used by "prefix"
	Namespace    string           `json:"namespace,omitzero" yaml:"namespace"`         // Redis key namespace
}
