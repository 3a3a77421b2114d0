package fallback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// AttemptFunc performs one upstream call for a candidate. The context carries
// the per-attempt deadline.
type AttemptFunc func(ctx context.Context, candidate models.Candidate) (string, error)

// Gate can veto a candidate before it is attempted and is told how each
// attempt ended. A circuit breaker is the usual implementation.
type Gate interface {
	Allow(ctx context.Context, candidate models.Candidate) bool
	Record(ctx context.Context, candidate models.Candidate, err error)
}

// Observer receives every finished or skipped attempt.
type Observer interface {
	AttemptFinished(ctx context.Context, result models.AttemptResult)
}

// Outcome describes a successful execution.
type Outcome struct {
	Text      string
	Candidate models.Candidate
	Attempts  []models.AttemptResult
}

// Executor tries candidates strictly in order, at most once each, and stops at
// the first success.
type Executor struct {
	attemptTimeout time.Duration
	gate           Gate
	observer       Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithGate installs a gate consulted before every candidate.
func WithGate(g Gate) Option {
	return func(e *Executor) { e.gate = g }
}

// WithObserver installs an attempt observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// NewExecutor creates an executor that bounds every attempt by attemptTimeout.
func NewExecutor(attemptTimeout time.Duration, opts ...Option) *Executor {
	if attemptTimeout <= 0 {
		attemptTimeout = 30 * time.Second
	}
	e := &Executor{attemptTimeout: attemptTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs attempt for each candidate until one succeeds. Individual
// failures are logged and swallowed; if every candidate fails the returned
// error is ALL_MODELS_FAILED wrapping the last failure.
func (e *Executor) Execute(
	ctx context.Context,
	requestID string,
	candidates []models.Candidate,
	attempt AttemptFunc,
) (*Outcome, error) {
	if attempt == nil {
		return nil, models.NewInternalError("fallback executor called without an attempt function", nil)
	}
	if len(candidates) == 0 {
		return nil, models.NewAllModelsFailedError(0, models.NewInternalError("no candidate models resolved", nil))
	}

	fiberlog.Infof("[%s] ═══ Sequential Fallback Started (%d candidates) ═══", requestID, len(candidates))

	attempts := make([]models.AttemptResult, 0, len(candidates))
	var lastErr error

	for i, candidate := range candidates {
		role := "primary"
		if candidate.Fallback {
			role = "fallback"
		}

		if ctx.Err() != nil {
			fiberlog.Warnf("[%s] Request context ended before %s candidate %s: %v", requestID, role, candidate, ctx.Err())
			if lastErr == nil {
				lastErr = models.NewTimeoutError(candidate.Model, ctx.Err())
			}
			break
		}

		if e.gate != nil && !e.gate.Allow(ctx, candidate) {
			fiberlog.Warnf("[%s] ⚡ Skipping %s candidate %s: circuit breaker open", requestID, role, candidate)
			lastErr = models.NewCircuitBreakerError(candidate.Model)
			result := models.AttemptResult{Candidate: candidate, Error: lastErr}
			attempts = append(attempts, result)
			e.observe(ctx, result)
			continue
		}

		fiberlog.Infof("[%s] 🔄 Trying %s candidate [%d/%d]: %s", requestID, role, i+1, len(candidates), candidate)

		text, result := e.runAttempt(ctx, candidate, attempt)
		attempts = append(attempts, result)
		e.observe(ctx, result)
		if e.gate != nil {
			e.gate.Record(ctx, candidate, result.Error)
		}

		if result.Error == nil {
			fiberlog.Infof("[%s] ✅ SUCCESS with %s candidate %s in %v", requestID, role, candidate, result.Duration)
			return &Outcome{Text: text, Candidate: candidate, Attempts: attempts}, nil
		}

		fiberlog.Warnf("[%s] ❌ FAILED %s candidate %s after %v: %v", requestID, role, candidate, result.Duration, result.Error)
		lastErr = result.Error
	}

	fiberlog.Errorf("[%s] 💥 All %d candidates failed, last error: %v", requestID, len(candidates), lastErr)
	return nil, models.NewAllModelsFailedError(len(attempts), lastErr)
}

// runAttempt executes one candidate under its own deadline and normalizes the
// error into an AppError.
func (e *Executor) runAttempt(ctx context.Context, candidate models.Candidate, attempt AttemptFunc) (text string, result models.AttemptResult) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	start := time.Now()
	result.Candidate = candidate

	defer func() {
		if r := recover(); r != nil {
			text = ""
			result.Error = models.NewUpstreamModelError(candidate.Provider, candidate.Model, 0, fmt.Errorf("panic: %v", r))
			result.Duration = time.Since(start)
		}
	}()

	text, err := attempt(attemptCtx, candidate)
	result.Duration = time.Since(start)
	if err == nil {
		return text, result
	}

	// a deadline, the attempt's own or the request's, is a model timeout; a
	// cancelled request context is reported as-is
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		result.Error = models.NewTimeoutError(candidate.Model, err)
		return "", result
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		result.Error = err
	} else {
		result.Error = models.NewUpstreamModelError(candidate.Provider, candidate.Model, 0, err)
	}
	return "", result
}

func (e *Executor) observe(ctx context.Context, result models.AttemptResult) {
	if e.observer != nil {
		e.observer.AttemptFinished(ctx, result)
	}
}
