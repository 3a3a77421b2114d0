package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var candidate = models.Candidate{Provider: "gemini", Model: "gemini-1.5-pro"}

func newTestBreaker(t *testing.T, cfg models.CircuitBreakerConfig) *Breaker {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	namespace := fmt.Sprintf("test:%s:%d", t.Name(), time.Now().UnixNano())
	b := New(client, namespace, cfg)
	t.Cleanup(func() { client.Del(context.Background(), b.key(candidate)) })
	return b
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Closed", Closed.String())
	assert.Equal(t, "Open", Open.String())
	assert.Equal(t, "HalfOpen", HalfOpen.String())
	assert.Equal(t, "Unknown(7)", State(7).String())
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New(nil, "consizen", models.CircuitBreakerConfig{Enabled: true})
	assert.Equal(t, 5, b.config.FailureThreshold)
	assert.Equal(t, 3, b.config.SuccessThreshold)
	assert.Equal(t, 30000, b.config.TimeoutMs)
	assert.Equal(t, "consizen:circuit_breaker:gemini:gemini-1.5-pro", b.key(candidate))
}

func TestAllowsWhenRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	b := New(client, "", models.CircuitBreakerConfig{})
	assert.True(t, b.Allow(context.Background(), candidate))
}

func TestBreakerLifecycle(t *testing.T) {
	ctx := context.Background()
	b := newTestBreaker(t, models.CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, TimeoutMs: 50})

	state, err := b.State(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, Closed, state)

	failure := errors.New("upstream down")
	b.Record(ctx, candidate, failure)
	assert.True(t, b.Allow(ctx, candidate))
	b.Record(ctx, candidate, failure)

	state, _ = b.State(ctx, candidate)
	assert.Equal(t, Open, state)
	assert.False(t, b.Allow(ctx, candidate))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, b.Allow(ctx, candidate), "open breaker half-opens after its timeout")
	state, _ = b.State(ctx, candidate)
	assert.Equal(t, HalfOpen, state)

	b.Record(ctx, candidate, nil)
	state, _ = b.State(ctx, candidate)
	assert.Equal(t, Closed, state)
}

func TestHalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	b := newTestBreaker(t, models.CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, TimeoutMs: 30})

	b.Record(ctx, candidate, errors.New("boom"))
	time.Sleep(50 * time.Millisecond)
	require.True(t, b.Allow(ctx, candidate))

	b.Record(ctx, candidate, errors.New("still broken"))
	state, _ := b.State(ctx, candidate)
	assert.Equal(t, Open, state)

	require.NoError(t, b.Reset(ctx, candidate))
	state, _ = b.State(ctx, candidate)
	assert.Equal(t, Closed, state)
}

func TestCountsAsFailure(t *testing.T) {
	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, countsAsFailure(live, errors.New("upstream down")))
	assert.True(t, countsAsFailure(live, models.NewTimeoutError(candidate.Model, context.DeadlineExceeded)))
	assert.False(t, countsAsFailure(live, fmt.Errorf("call: %w", context.Canceled)))
	assert.False(t, countsAsFailure(cancelled, errors.New("upstream down")))
}

func TestCancelledRequestsLeaveBreakerClosed(t *testing.T) {
	b := newTestBreaker(t, models.CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, TimeoutMs: 50})

	for range 5 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		b.Record(ctx, candidate, context.Canceled)
	}

	state, err := b.State(context.Background(), candidate)
	require.NoError(t, err)
	assert.Equal(t, Closed, state)
	assert.True(t, b.Allow(context.Background(), candidate))
}
