package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/services/cache"
	"github.com/Egham-7/consizen-proxy/internal/services/fallback"
	"github.com/Egham-7/consizen-proxy/internal/services/generate"
	"github.com/Egham-7/consizen-proxy/internal/services/policy"
	"github.com/Egham-7/consizen-proxy/internal/services/providers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, fn func(ctx context.Context, model, prompt string) (string, error)) (*fiber.App, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	registry := providers.NewRegistry()
	registry.Register(providers.GeneratorFunc{
		Provider: models.ProviderGemini,
		Fn: func(ctx context.Context, model, prompt string) (string, error) {
			calls.Add(1)
			return fn(ctx, model, prompt)
		},
	})

	mem, err := cache.NewMemoryCache(100, time.Hour)
	require.NoError(t, err)

	svc, err := generate.NewService(generate.Options{
		Cache:     mem,
		Policy:    policy.DefaultTable(),
		Providers: registry,
		Executor:  fallback.NewExecutor(time.Second),
	})
	require.NoError(t, err)

	h := NewGenerateHandler(svc)
	app := fiber.New()
	app.Post("/api/gemini", h.Generate)
	app.Get("/api/gemini", h.Ready)
	return app, &calls
}

func post(t *testing.T, app *fiber.App, body string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	return resp, decoded
}

func TestGenerateReturnsResult(t *testing.T) {
	app, calls := newTestApp(t, func(_ context.Context, model, _ string) (string, error) {
		return "score: 72 from " + model, nil
	})

	resp, body := post(t, app, `{"prompt":"Starbucks Coffee, $4.50","task":"sustainability_analysis"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "score: 72 from "+policy.ModelPro, body["result"])
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "gemini/"+policy.ModelPro, resp.Header.Get("X-Model"))

	resp, body = post(t, app, `{"prompt":"Starbucks Coffee, $4.50","task":"sustainability_analysis"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "score: 72 from "+policy.ModelPro, body["result"])
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateMissingPrompt(t *testing.T) {
	app, calls := newTestApp(t, func(context.Context, string, string) (string, error) {
		return "unused", nil
	})

	for _, body := range []string{`{}`, `{"prompt":""}`, `{"task":"general"}`, ``} {
		resp, decoded := post(t, app, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, map[string]any{"error": "Prompt is required"}, decoded, body)
	}
	assert.Zero(t, calls.Load())
}

func TestGenerateInvalidJSON(t *testing.T) {
	app, calls := newTestApp(t, func(context.Context, string, string) (string, error) {
		return "unused", nil
	})

	resp, body := post(t, app, `{"prompt":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid JSON body", body["error"])
	assert.Zero(t, calls.Load())
}

func TestGenerateAllModelsFailed(t *testing.T) {
	app, calls := newTestApp(t, func(_ context.Context, model, _ string) (string, error) {
		if model == policy.ModelFallback {
			return "", models.NewUpstreamModelError(models.ProviderGemini, model, http.StatusTooManyRequests, errors.New("Resource has been exhausted"))
		}
		return "", errors.New("primary unavailable")
	})

	resp, body := post(t, app, `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Failed to generate content", body["error"])
	assert.Equal(t, "Resource has been exhausted", body["details"])
	assert.EqualValues(t, http.StatusTooManyRequests, body["status"])
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateFailureWithoutUpstreamStatus(t *testing.T) {
	app, _ := newTestApp(t, func(context.Context, string, string) (string, error) {
		return "", errors.New("connection reset")
	})

	resp, body := post(t, app, `{"prompt":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "connection reset", body["details"])
	assert.EqualValues(t, http.StatusInternalServerError, body["status"])
}

func TestReady(t *testing.T) {
	app, _ := newTestApp(t, func(context.Context, string, string) (string, error) {
		return "", nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/gemini", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body["status"])
}
