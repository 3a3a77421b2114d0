package builder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesDefaults(t *testing.T) {
	cfg := New().Build()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, models.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 100, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, models.CacheKeyPrefix, cfg.Cache.KeyStrategy)
	assert.Equal(t, 30000, cfg.Fallback.AttemptTimeoutMs)
	assert.False(t, cfg.BreakerEnabled())
}

func TestFluentSetters(t *testing.T) {
	b := New().
		Port("9090").
		Environment("production").
		AddGeminiProvider("key").
		AddProvider("OpenAI", NewProviderBuilder("sk").WithBaseURL("http://localhost").WithTimeout(500).WithHeader("X-A", "1").Build()).
		WithRedisCache("redis://localhost:6379").
		WithCircuitBreaker(models.CircuitBreakerConfig{FailureThreshold: 2}).
		WithAttemptTimeout(5*time.Second).
		WithRequestTimeout(20*time.Second).
		WithRateLimit(10, time.Second).
		WithTaskModel("Recommendations", "openai:gpt-4o-mini").
		WithFallbackModel("gemini-1.0-pro").
		WithPrompt("recommendations", "Suggest: {{.Prompt}}").
		WithMetrics("").
		WithMiddleware(func(c *fiber.Ctx) error { return c.Next() })

	cfg := b.Build()
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "key", cfg.GetProviderAPIKey("gemini"))

	openai, ok := cfg.GetProviderConfig("openai")
	require.True(t, ok)
	assert.Equal(t, "http://localhost", openai.BaseURL)
	assert.Equal(t, 500, openai.TimeoutMs)
	assert.Equal(t, map[string]string{"X-A": "1"}, openai.Headers)

	assert.Equal(t, models.CacheBackendRedis, cfg.Cache.Backend)
	assert.True(t, cfg.BreakerEnabled())
	assert.Equal(t, 2, cfg.Fallback.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 3, cfg.Fallback.CircuitBreaker.SuccessThreshold)
	assert.Equal(t, 5000, cfg.Fallback.AttemptTimeoutMs)
	assert.Equal(t, 20000, cfg.Server.RequestTimeoutMs)
	assert.Equal(t, 10, cfg.Server.RateLimit.Max)
	assert.Equal(t, map[string]string{"recommendations": "openai:gpt-4o-mini"}, cfg.Policy.Tasks)
	assert.Equal(t, "Suggest: {{.Prompt}}", cfg.Prompts["recommendations"])
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Len(t, b.GetMiddlewares(), 1)

	assert.NoError(t, cfg.Validate([]string{"openai:gpt-4o-mini", "gemini-1.0-pro"}))
}

func TestWithPolicyCopiesMaps(t *testing.T) {
	tasks := map[string]string{"general": "gemini-1.5-pro"}
	cfg := New().WithPolicy(models.PolicyConfig{Tasks: tasks}).Build()

	tasks["general"] = "changed"
	assert.Equal(t, "gemini-1.5-pro", cfg.Policy.Tasks["general"])
}

func TestFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\nproviders:\n  gemini:\n    api_key: abc\n"), 0o600))

	b, err := FromYAML(path, nil)
	require.NoError(t, err)

	cfg := b.Port("7001").Build()
	assert.Equal(t, "7001", cfg.Server.Port)
	assert.Equal(t, "abc", cfg.GetProviderAPIKey("gemini"))
}
