package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"github.com/Egham-7/consizen-proxy/internal/models"
)

const keyPrefix = "gen:"

// KeyBuilder derives cache keys from a normalized task and a prompt.
type KeyBuilder struct {
	strategy     models.CacheKeyStrategy
	prefixLength int
}

// NewKeyBuilder returns a key builder for cfg's strategy.
func NewKeyBuilder(cfg models.CacheConfig) KeyBuilder {
	kb := KeyBuilder{strategy: cfg.KeyStrategy, prefixLength: cfg.PrefixLength}
	if kb.strategy == "" {
		kb.strategy = models.CacheKeyPrefix
	}
	if kb.prefixLength <= 0 {
		kb.prefixLength = 100
	}
	return kb
}

// Key returns the cache key for task and prompt.
//
// With the prefix strategy two prompts that agree on their first
// prefixLength characters share a key, so they share a cached result.
// The task is escaped so a ':' inside it cannot collide with the separator.
func (kb KeyBuilder) Key(task, prompt string) string {
	task = url.QueryEscape(task)

	if kb.strategy == models.CacheKeySHA256 {
		sum := sha256.Sum256([]byte(prompt))
		return keyPrefix + task + ":" + hex.EncodeToString(sum[:])
	}
	return keyPrefix + task + ":" + firstRunes(prompt, kb.prefixLength)
}

// firstRunes returns the first n characters of s without splitting a UTF-8 sequence.
func firstRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
