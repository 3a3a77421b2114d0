package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "*", cfg.Server.AllowedOrigins)
	assert.Equal(t, models.CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 100, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, models.CacheKeyPrefix, cfg.Cache.KeyStrategy)
	assert.Equal(t, 100, cfg.Cache.PrefixLength)
	assert.Equal(t, 30*time.Second, cfg.Fallback.AttemptTimeout())
	assert.Equal(t, models.ProviderGemini, cfg.Policy.DefaultProvider)
	assert.Equal(t, DefaultGenerationConfig(), cfg.Generation)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.BreakerEnabled())
}

func TestParseSubstitutesEnvVars(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret")

	cfg, err := Parse([]byte(`
server:
  port: "${TEST_PORT_UNSET:-9000}"
providers:
  Gemini:
    api_key: "${TEST_GEMINI_KEY}"
cache:
  ttl: 30m
fallback:
  circuit_breaker:
    enabled: true
prompts:
  recommendations: "Tips: {{.Prompt}}"
`))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "secret", cfg.GetProviderAPIKey("gemini"))
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.BreakerEnabled())
	assert.Equal(t, 5, cfg.Fallback.CircuitBreaker.FailureThreshold)
	assert.Equal(t, "Tips: {{.Prompt}}", cfg.Prompts["recommendations"])
}

func TestValidateFailsClosedWithoutKey(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	err = cfg.Validate([]string{"gemini-1.5-flash", "gemini-1.0-pro"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"providers.gemini.api_key"}, validationErr.MissingFields)

	cfg.Providers["gemini"] = models.ProviderConfig{APIKey: "k"}
	assert.NoError(t, cfg.Validate([]string{"gemini-1.5-flash", "gemini-1.0-pro"}))

	err = cfg.Validate([]string{"anthropic:claude-3-5-haiku-latest"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"providers.anthropic.api_key"}, validationErr.MissingFields)
}

func TestValidateCacheSettings(t *testing.T) {
	cfg, err := Parse([]byte("providers:\n  gemini:\n    api_key: k\ncache:\n  backend: redis\n"))
	require.NoError(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, cfg.Validate(nil), &validationErr)
	assert.Contains(t, validationErr.MissingFields, "cache.redis_url")

	cfg.Cache.Backend = "memcached"
	assert.ErrorContains(t, cfg.Validate(nil), "unsupported cache backend")

	cfg.Cache.Backend = models.CacheBackendMemory
	cfg.Cache.KeyStrategy = "md5"
	assert.ErrorContains(t, cfg.Validate(nil), "unsupported cache key strategy")
}

func TestValidateBreakerNeedsRedis(t *testing.T) {
	cfg, err := Parse([]byte("fallback:\n  circuit_breaker:\n    enabled: true\n"))
	require.NoError(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, cfg.Validate(nil), &validationErr)
	assert.Contains(t, validationErr.MissingFields, "cache.redis_url (required by fallback.circuit_breaker)")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  log_level: DEBUG\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.GetNormalizedLogLevel())

	_, err = LoadFromFile(filepath.Join(dir, "config.json"))
	assert.ErrorContains(t, err, "only .yaml and .yml")

	_, err = LoadFromFile("../config.yaml")
	assert.ErrorContains(t, err, "path traversal")

	_, err = LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env.local")
	second := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(first, []byte("CONSIZEN_TEST_VAR=local\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("CONSIZEN_TEST_VAR=base\nCONSIZEN_TEST_OTHER=base\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CONSIZEN_TEST_VAR")
		os.Unsetenv("CONSIZEN_TEST_OTHER")
	})

	LoadEnvFiles([]string{first, filepath.Join(dir, "absent"), second})

	assert.Equal(t, "local", os.Getenv("CONSIZEN_TEST_VAR"))
	assert.Equal(t, "base", os.Getenv("CONSIZEN_TEST_OTHER"))
}

func TestRequestTimeoutCoversBothCandidates(t *testing.T) {
	cfg, err := Parse([]byte("fallback:\n  attempt_timeout_ms: 45000\n"))
	require.NoError(t, err)
	assert.Equal(t, 90000, cfg.Server.RequestTimeoutMs)
	assert.NoError(t, cfg.Validate(nil))

	cfg, err = Parse([]byte("server:\n  request_timeout_ms: 50000\n"))
	require.NoError(t, err)
	assert.Equal(t, 60000, 2*cfg.Fallback.AttemptTimeoutMs)
	assert.ErrorContains(t, cfg.Validate(nil), "request_timeout_ms")

	cfg.Server.RequestTimeoutMs = 60000
	assert.NoError(t, cfg.Validate(nil))
}
