package fallback

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	primary  = models.Candidate{Spec: "gemini-1.5-pro", Provider: "gemini", Model: "gemini-1.5-pro"}
	fallback = models.Candidate{Spec: "gemini-1.0-pro", Provider: "gemini", Model: "gemini-1.0-pro", Fallback: true}
)

type recordingGate struct {
	mu       sync.Mutex
	deny     map[string]bool
	recorded map[string]error
}

func (g *recordingGate) Allow(_ context.Context, c models.Candidate) bool {
	return !g.deny[c.Model]
}

func (g *recordingGate) Record(_ context.Context, c models.Candidate, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.recorded == nil {
		g.recorded = make(map[string]error)
	}
	g.recorded[c.Model] = err
}

type countingObserver struct {
	results []models.AttemptResult
}

func (o *countingObserver) AttemptFinished(_ context.Context, r models.AttemptResult) {
	o.results = append(o.results, r)
}

func TestExecutePrimarySucceeds(t *testing.T) {
	var calls []string
	e := NewExecutor(time.Second)

	out, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(_ context.Context, c models.Candidate) (string, error) {
			calls = append(calls, c.Model)
			return "ok from " + c.Model, nil
		})
	require.NoError(t, err)

	assert.Equal(t, "ok from gemini-1.5-pro", out.Text)
	assert.Equal(t, primary, out.Candidate)
	assert.Equal(t, []string{"gemini-1.5-pro"}, calls, "fallback must not be called after success")
}

func TestExecuteFallsBackOnFailure(t *testing.T) {
	var calls []string
	e := NewExecutor(time.Second)

	out, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(_ context.Context, c models.Candidate) (string, error) {
			calls = append(calls, c.Model)
			if c == primary {
				return "", errors.New("quota exceeded")
			}
			return "fallback text", nil
		})
	require.NoError(t, err)

	assert.Equal(t, "fallback text", out.Text)
	assert.Equal(t, []string{"gemini-1.5-pro", "gemini-1.0-pro"}, calls)
	require.Len(t, out.Attempts, 2)
	assert.True(t, models.HasCode(out.Attempts[0].Error, models.CodeUpstreamModelError))
}

func TestExecuteAllFailCarriesLastError(t *testing.T) {
	e := NewExecutor(time.Second)

	_, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(_ context.Context, c models.Candidate) (string, error) {
			if c == primary {
				return "", models.NewUpstreamModelError("gemini", c.Model, http.StatusTooManyRequests, errors.New("primary quota"))
			}
			return "", models.NewUpstreamModelError("gemini", c.Model, http.StatusServiceUnavailable, errors.New("fallback overloaded"))
		})
	require.Error(t, err)

	appErr := models.AsAppError(err)
	assert.Equal(t, models.CodeAllModelsFailed, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.StatusCode)
	assert.Equal(t, "fallback overloaded", appErr.Details())
}

func TestExecuteTimeoutTriggersFallback(t *testing.T) {
	e := NewExecutor(30 * time.Millisecond)

	out, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(ctx context.Context, c models.Candidate) (string, error) {
			if c == primary {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "fast fallback", nil
		})
	require.NoError(t, err)

	assert.Equal(t, "fast fallback", out.Text)
	require.Len(t, out.Attempts, 2)
	assert.True(t, models.HasCode(out.Attempts[0].Error, models.CodeUpstreamTimeout))
}

func TestExecuteAllTimeoutsReport500(t *testing.T) {
	e := NewExecutor(10 * time.Millisecond)

	_, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(ctx context.Context, _ models.Candidate) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	require.Error(t, err)

	appErr := models.AsAppError(err)
	assert.Equal(t, models.CodeAllModelsFailed, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}

func TestExecuteRequestDeadlineIsReportedAsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	e := NewExecutor(time.Second)

	_, err := e.Execute(ctx, "req", []models.Candidate{primary, fallback},
		func(ctx context.Context, _ models.Candidate) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeAllModelsFailed, appErr.Code)
	assert.True(t, models.HasCode(appErr.Cause, models.CodeUpstreamTimeout))
}

func TestExecuteStopsWhenRequestContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	e := NewExecutor(time.Second)

	_, err := e.Execute(ctx, "req", []models.Candidate{primary, fallback},
		func(context.Context, models.Candidate) (string, error) {
			calls++
			cancel()
			return "", errors.New("client went away")
		})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, models.HasCode(err, models.CodeAllModelsFailed))
}

func TestExecuteRecoversPanics(t *testing.T) {
	e := NewExecutor(time.Second)

	out, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(_ context.Context, c models.Candidate) (string, error) {
			if c == primary {
				panic("sdk bug")
			}
			return "survived", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "survived", out.Text)
}

func TestExecuteGateSkipsAndRecords(t *testing.T) {
	gate := &recordingGate{deny: map[string]bool{"gemini-1.5-pro": true}}
	obs := &countingObserver{}
	var calls []string
	e := NewExecutor(time.Second, WithGate(gate), WithObserver(obs))

	out, err := e.Execute(context.Background(), "req", []models.Candidate{primary, fallback},
		func(_ context.Context, c models.Candidate) (string, error) {
			calls = append(calls, c.Model)
			return "from fallback", nil
		})
	require.NoError(t, err)

	assert.Equal(t, "from fallback", out.Text)
	assert.Equal(t, []string{"gemini-1.0-pro"}, calls)
	assert.Contains(t, gate.recorded, "gemini-1.0-pro")
	assert.NotContains(t, gate.recorded, "gemini-1.5-pro", "skipped candidates are not recorded as attempts")

	require.Len(t, obs.results, 2)
	assert.True(t, models.HasCode(obs.results[0].Error, models.CodeCircuitBreakerOpen))
	assert.NoError(t, obs.results[1].Error)
}

func TestExecuteRejectsEmptyInput(t *testing.T) {
	e := NewExecutor(time.Second)

	_, err := e.Execute(context.Background(), "req", nil, func(context.Context, models.Candidate) (string, error) {
		return "", nil
	})
	assert.True(t, models.HasCode(err, models.CodeAllModelsFailed))

	_, err = e.Execute(context.Background(), "req", []models.Candidate{primary}, nil)
	assert.Error(t, err)
}
