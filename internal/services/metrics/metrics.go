// Package metrics records cache and upstream activity with OpenTelemetry.
package metrics

import (
	"context"

	"github.com/Egham-7/consizen-proxy/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attempt outcomes used as the "outcome" attribute.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)

// Recorder receives proxy events. Implementations must be safe for concurrent
// use and must not block.
type Recorder interface {
	CacheHit(ctx context.Context, task string)
	CacheMiss(ctx context.Context, task string)
	AttemptFinished(ctx context.Context, result models.AttemptResult)
	RequestFailed(ctx context.Context, code string)
}

type otelRecorder struct {
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	attempts       metric.Int64Counter
	failedRequests metric.Int64Counter
	attemptLatency metric.Float64Histogram
}

// NewRecorder creates the proxy instruments on meter.
func NewRecorder(meter metric.Meter) (Recorder, error) {
	cacheHits, err := meter.Int64Counter(
		"proxy.cache.hits",
		metric.WithDescription("Generation requests answered from the response cache"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"proxy.cache.misses",
		metric.WithDescription("Generation requests that had to go upstream"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	attempts, err := meter.Int64Counter(
		"proxy.upstream.attempts",
		metric.WithDescription("Upstream model attempts by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	failedRequests, err := meter.Int64Counter(
		"proxy.requests.failed",
		metric.WithDescription("Generation requests that ended in an error"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	attemptLatency, err := meter.Float64Histogram(
		"proxy.upstream.duration",
		metric.WithDescription("Upstream model attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		cacheHits:      cacheHits,
		cacheMisses:    cacheMisses,
		attempts:       attempts,
		failedRequests: failedRequests,
		attemptLatency: attemptLatency,
	}, nil
}

func (r *otelRecorder) CacheHit(ctx context.Context, task string) {
	r.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("task", task)))
}

func (r *otelRecorder) CacheMiss(ctx context.Context, task string) {
	r.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("task", task)))
}

func (r *otelRecorder) AttemptFinished(ctx context.Context, result models.AttemptResult) {
	outcome := Outcome(result.Error)
	attrs := metric.WithAttributes(
		attribute.String("provider", result.Candidate.Provider),
		attribute.String("model", result.Candidate.Model),
		attribute.String("outcome", outcome),
	)
	r.attempts.Add(ctx, 1, attrs)

	// skipped candidates never reached the upstream
	if outcome != OutcomeSkipped {
		r.attemptLatency.Record(ctx, float64(result.Duration.Milliseconds()), attrs)
	}
}

func (r *otelRecorder) RequestFailed(ctx context.Context, code string) {
	r.failedRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// Outcome classifies an attempt error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case models.HasCode(err, models.CodeUpstreamTimeout):
		return OutcomeTimeout
	case models.HasCode(err, models.CodeCircuitBreakerOpen):
		return OutcomeSkipped
	default:
		return OutcomeFailure
	}
}

type noopRecorder struct{}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return noopRecorder{}
}

func (noopRecorder) CacheHit(context.Context, string)                      {}
func (noopRecorder) CacheMiss(context.Context, string)                     {}
func (noopRecorder) AttemptFinished(context.Context, models.AttemptResult) {}
func (noopRecorder) RequestFailed(context.Context, string)                 {}
