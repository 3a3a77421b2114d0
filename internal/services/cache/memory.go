package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is a process-local LRU with a fixed time-to-live per entry.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryCache creates an in-memory cache holding at most capacity live
// entries, each expiring ttl after it was last written.
func NewMemoryCache(capacity int, ttl time.Duration) (*MemoryCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, string](capacity, nil, ttl),
	}, nil
}

// Get returns the live value for key and marks it most recently used.
func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := m.lru.Get(key)
	return value, ok, nil
}

// Set stores value under key, evicting the least recently used entry when full.
func (m *MemoryCache) Set(_ context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Len returns the number of entries that have not expired.
func (m *MemoryCache) Len(_ context.Context) (int, error) {
	// entries past their ttl stay in the list until the background purge reaches them
	live := 0
	for _, key := range m.lru.Keys() {
		if _, ok := m.lru.Peek(key); ok {
			live++
		}
	}
	return live, nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

// Close drops every entry. The expirable LRU starts a purge goroutine that
// has no stop hook, so it outlives Close and runs until the process exits.
// Create one MemoryCache per process; leak checks in tests must ignore
// expirable.NewLRU.
func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}
