// Package circuitbreaker tracks upstream model health in Redis so that every
// proxy replica skips a model that keeps failing.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "HalfOpen"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

const (
	keyPrefix      = "circuit_breaker:"
	stateField     = "state"
	failuresField  = "failures"
	successesField = "successes"
	openedAtField  = "opened_at"
	changedAtField = "changed_at"

	redisTimeout = time.Second
)

// Each model's breaker lives in one hash so a script touches a single key.
var (
	// KEYS[1]: breaker hash
	// ARGV[1]: now ms, ARGV[2]: open timeout ms
	// returns 1 when the call may proceed, 0 otherwise
	allowScript = redis.NewScript(`
		local state = tonumber(redis.call('HGET', KEYS[1], 'state') or '0')
		if state ~= 1 then
			return 1
		end
		local openedAt = tonumber(redis.call('HGET', KEYS[1], 'opened_at') or '0')
		if tonumber(ARGV[1]) - openedAt >= tonumber(ARGV[2]) then
			redis.call('HSET', KEYS[1], 'state', 2, 'successes', 0, 'changed_at', ARGV[1])
			return 1
		end
		return 0
	`)

	// KEYS[1]: breaker hash
	// ARGV[1]: success threshold, ARGV[2]: now ms
	// returns 2 on HalfOpen -> Closed, 1 on a HalfOpen success, 0 otherwise
	successScript = redis.NewScript(`
		local state = tonumber(redis.call('HGET', KEYS[1], 'state') or '0')
		redis.call('HSET', KEYS[1], 'failures', 0)
		if state == 2 then
			local count = redis.call('HINCRBY', KEYS[1], 'successes', 1)
			if count >= tonumber(ARGV[1]) then
				redis.call('HSET', KEYS[1], 'state', 0, 'successes', 0, 'changed_at', ARGV[2])
				return 2
			end
			return 1
		end
		return 0
	`)

	// KEYS[1]: breaker hash
	// ARGV[1]: failure threshold, ARGV[2]: now ms
	// returns 1 when the breaker opened
	failureScript = redis.NewScript(`
		local state = tonumber(redis.call('HGET', KEYS[1], 'state') or '0')
		local failures = redis.call('HINCRBY', KEYS[1], 'failures', 1)
		if (state == 0 and failures >= tonumber(ARGV[1])) or state == 2 then
			redis.call('HSET', KEYS[1], 'state', 1, 'opened_at', ARGV[2], 'changed_at', ARGV[2], 'successes', 0)
			return 1
		end
		return 0
	`)
)

// Breaker is a Closed/Open/HalfOpen circuit breaker keyed by upstream model.
// Redis errors never block traffic: an unreachable store allows every call.
type Breaker struct {
	client *redis.Client
	config models.CircuitBreakerConfig
	prefix string
}

// New creates a breaker storing its state under namespace in Redis.
func New(client *redis.Client, namespace string, cfg models.CircuitBreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 30000
	}
	prefix := keyPrefix
	if namespace != "" {
		prefix = namespace + ":" + keyPrefix
	}
	return &Breaker{client: client, config: cfg, prefix: prefix}
}

func (b *Breaker) key(candidate models.Candidate) string {
	return b.prefix + candidate.Provider + ":" + candidate.Model
}

// Allow reports whether candidate may be called. An open breaker whose
// timeout has elapsed moves to HalfOpen and lets the call through.
func (b *Breaker) Allow(ctx context.Context, candidate models.Candidate) bool {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	allowed, err := allowScript.Run(ctx, b.client, []string{b.key(candidate)},
		time.Now().UnixMilli(), b.config.TimeoutMs,
	).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to check %s, allowing execution: %v", candidate, err)
		return true
	}
	return allowed == 1
}

// Record updates the breaker for candidate with the outcome of a call.
// Failures caused by the caller giving up are not held against the model.
func (b *Breaker) Record(ctx context.Context, candidate models.Candidate, callErr error) {
	if callErr == nil {
		b.recordSuccess(ctx, candidate)
		return
	}
	if !countsAsFailure(ctx, callErr) {
		fiberlog.Debugf("circuit breaker: ignoring %s failure after request ended: %v", candidate, callErr)
		return
	}
	b.recordFailure(ctx, candidate)
}

// countsAsFailure reports whether callErr reflects the model's health rather
// than a cancelled or expired request.
func countsAsFailure(ctx context.Context, callErr error) bool {
	if errors.Is(callErr, context.Canceled) {
		return false
	}
	return ctx.Err() == nil
}

func (b *Breaker) recordSuccess(ctx context.Context, candidate models.Candidate) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
	defer cancel()

	result, err := successScript.Run(ctx, b.client, []string{b.key(candidate)},
		b.config.SuccessThreshold, time.Now().UnixMilli(),
	).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to record success for %s: %v", candidate, err)
		return
	}

	switch result {
	case 2:
		fiberlog.Infof("CircuitBreaker: %s transitioned to Closed state after success", candidate)
	case 1:
		fiberlog.Infof("CircuitBreaker: %s recorded success in HalfOpen state", candidate)
	default:
		fiberlog.Debugf("CircuitBreaker: %s recorded success", candidate)
	}
}

func (b *Breaker) recordFailure(ctx context.Context, candidate models.Candidate) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
	defer cancel()

	opened, err := failureScript.Run(ctx, b.client, []string{b.key(candidate)},
		b.config.FailureThreshold, time.Now().UnixMilli(),
	).Int()
	if err != nil {
		fiberlog.Errorf("CircuitBreaker: Failed to record failure for %s: %v", candidate, err)
		return
	}

	if opened == 1 {
		fiberlog.Warnf("CircuitBreaker: %s transitioned to Open state after failure", candidate)
	} else {
		fiberlog.Debugf("CircuitBreaker: %s recorded failure", candidate)
	}
}

// State returns the stored state for candidate. Missing state reads as Closed.
func (b *Breaker) State(ctx context.Context, candidate models.Candidate) (State, error) {
	raw, err := b.client.HGet(ctx, b.key(candidate), stateField).Result()
	if errors.Is(err, redis.Nil) {
		return Closed, nil
	}
	if err != nil {
		return Closed, fmt.Errorf("failed to get circuit breaker state: %w", err)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return Closed, fmt.Errorf("invalid state value '%s': %w", raw, err)
	}
	return State(n), nil
}

// Reset closes the breaker for candidate and clears its counters.
func (b *Breaker) Reset(ctx context.Context, candidate models.Candidate) error {
	err := b.client.HSet(ctx, b.key(candidate),
		stateField, int(Closed),
		failuresField, 0,
		successesField, 0,
		changedAtField, time.Now().UnixMilli(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to reset circuit breaker for %s: %w", candidate, err)
	}
	b.client.HDel(ctx, b.key(candidate), openedAtField)
	fiberlog.Infof("CircuitBreaker: Reset circuit breaker for %s", candidate)
	return nil
}
