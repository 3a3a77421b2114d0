package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/utils"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort             = "8080"
	defaultAllowedOrigins   = "*"
	defaultLogLevel         = "info"
	defaultRequestTimeoutMs = 60000
	defaultRateLimitMax     = 1000
	defaultRateLimitWindow  = time.Minute

	defaultCacheCapacity     = 100
	defaultCacheTTL          = time.Hour
	defaultCachePrefixLength = 100
	defaultCacheNamespace    = "consizen"

	defaultAttemptTimeoutMs = 30000

	// primary plus static fallback
	maxCandidates = 2

	defaultBreakerFailureThreshold = 5
	defaultBreakerSuccessThreshold = 3
	defaultBreakerTimeoutMs        = 30000

	defaultMetricsPath = "/metrics"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::(-[^}]*))?\}`)

// Config represents the complete application configuration
type Config struct {
	Server     models.ServerConfig     `yaml:"server"`
	Providers  models.ProvidersConfig  `yaml:"providers"`
	Policy     models.PolicyConfig     `yaml:"policy"`
	Generation models.GenerationConfig `yaml:"generation"`
	Cache      models.CacheConfig      `yaml:"cache"`
	Fallback   models.FallbackConfig   `yaml:"fallback"`
	Metrics    models.MetricsConfig    `yaml:"metrics"`
	// Prompts overrides the built-in task templates, keyed by task name.
	Prompts map[string]string `yaml:"prompts"`
}

// LoadFromFile loads configuration from a YAML file with environment variable substitution
func LoadFromFile(configPath string) (*Config, error) {
	cleanPath := filepath.Clean(configPath)

	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid config path: path traversal not allowed")
	}

	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("invalid config file: only .yaml and .yml files are allowed")
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes after substituting environment variables and applies defaults
func Parse(data []byte) (*Config, error) {
	content := substituteEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.normalize()
	config.ApplyDefaults()
	return &config, nil
}

// LoadEnvFiles loads environment variables from .env files in order of precedence
// Loads files in the order provided (first has highest priority)
func LoadEnvFiles(envFiles []string) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err == nil {
				fiberlog.Infof("Loaded environment variables from %s", envFile)
			}
		}
	}
}

// New creates a new Config instance by loading from the specified config file path
func New(configPath string) (*Config, error) {
	return LoadFromFile(configPath)
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-default} patterns with environment variables
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		defaultValue := ""

		if len(submatches) > 2 && submatches[2] != "" {
			defaultValue = strings.TrimPrefix(submatches[2], "-")
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// normalize lowercases provider names for case-insensitive lookups
func (c *Config) normalize() {
	if c.Providers != nil {
		normalized := make(models.ProvidersConfig, len(c.Providers))
		for key, value := range c.Providers {
			normalized[strings.ToLower(key)] = value
		}
		c.Providers = normalized
	}
	if c.Policy.DefaultProvider != "" {
		c.Policy.DefaultProvider = strings.ToLower(c.Policy.DefaultProvider)
	}
}

// ApplyDefaults fills every unset field with its built-in default.
// The policy table itself is completed by the policy package.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.Server.AllowedOrigins == "" {
		c.Server.AllowedOrigins = defaultAllowedOrigins
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaultLogLevel
	}
	if c.Server.RateLimit.Max <= 0 {
		c.Server.RateLimit.Max = defaultRateLimitMax
	}
	if c.Server.RateLimit.Expiration <= 0 {
		c.Server.RateLimit.Expiration = defaultRateLimitWindow
	}

	if c.Providers == nil {
		c.Providers = make(models.ProvidersConfig)
	}
	if c.Policy.DefaultProvider == "" {
		c.Policy.DefaultProvider = models.ProviderGemini
	}

	if c.Generation == (models.GenerationConfig{}) {
		c.Generation = DefaultGenerationConfig()
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = models.CacheBackendMemory
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = defaultCacheCapacity
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Cache.KeyStrategy == "" {
		c.Cache.KeyStrategy = models.CacheKeyPrefix
	}
	if c.Cache.PrefixLength <= 0 {
		c.Cache.PrefixLength = defaultCachePrefixLength
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = defaultCacheNamespace
	}

	if c.Fallback.AttemptTimeoutMs <= 0 {
		c.Fallback.AttemptTimeoutMs = defaultAttemptTimeoutMs
	}
	if c.Server.RequestTimeoutMs <= 0 {
		c.Server.RequestTimeoutMs = max(defaultRequestTimeoutMs, maxCandidates*c.Fallback.AttemptTimeoutMs)
	}
	if cb := c.Fallback.CircuitBreaker; cb != nil {
		if cb.FailureThreshold <= 0 {
			cb.FailureThreshold = defaultBreakerFailureThreshold
		}
		if cb.SuccessThreshold <= 0 {
			cb.SuccessThreshold = defaultBreakerSuccessThreshold
		}
		if cb.TimeoutMs <= 0 {
			cb.TimeoutMs = defaultBreakerTimeoutMs
		}
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = defaultMetricsPath
	}
}

// DefaultGenerationConfig returns the sampling parameters used by the sustainability agent
func DefaultGenerationConfig() models.GenerationConfig {
	return models.GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
}

// GetProviderConfig returns the configuration for a specific provider
func (c *Config) GetProviderConfig(provider string) (models.ProviderConfig, bool) {
	return c.Providers.Get(provider)
}

// GetProviderAPIKey returns the API key for a specific provider
func (c *Config) GetProviderAPIKey(provider string) string {
	if providerConfig, exists := c.Providers.Get(provider); exists {
		return providerConfig.APIKey
	}
	return ""
}

// GetNormalizedLogLevel returns the log level in lowercase for consistent comparison
func (c *Config) GetNormalizedLogLevel() string {
	return strings.ToLower(c.Server.LogLevel)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// BreakerEnabled reports whether candidate circuit breaking is switched on
func (c *Config) BreakerEnabled() bool {
	return c.Fallback.CircuitBreaker != nil && c.Fallback.CircuitBreaker.Enabled
}

// RedisURL returns the Redis connection string, if any component needs one
func (c *Config) RedisURL() string {
	return c.Cache.RedisURL
}

// Validate checks that all required configuration values are set.
// A policy that references a provider without credentials is rejected so the
// server fails closed instead of serving with a missing key.
func (c *Config) Validate(referencedModels []string) error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port")
	}
	if c.Server.AllowedOrigins == "" {
		missing = append(missing, "server.allowed_origins")
	}

	switch c.Cache.Backend {
	case models.CacheBackendMemory:
	case models.CacheBackendRedis:
		if c.Cache.RedisURL == "" {
			missing = append(missing, "cache.redis_url")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %s (supported: memory, redis)", c.Cache.Backend)
	}

	switch c.Cache.KeyStrategy {
	case models.CacheKeyPrefix, models.CacheKeySHA256:
	default:
		return fmt.Errorf("unsupported cache key strategy: %s (supported: prefix, sha256)", c.Cache.KeyStrategy)
	}

	if c.Server.RequestTimeoutMs < maxCandidates*c.Fallback.AttemptTimeoutMs {
		return fmt.Errorf("server.request_timeout_ms (%d) must be at least %d x fallback.attempt_timeout_ms (%d) so the fallback model gets a full attempt",
			c.Server.RequestTimeoutMs, maxCandidates, c.Fallback.AttemptTimeoutMs)
	}

	if c.BreakerEnabled() && c.RedisURL() == "" {
		missing = append(missing, "cache.redis_url (required by fallback.circuit_breaker)")
	}

	seen := make(map[string]bool)
	for _, spec := range referencedModels {
		provider, _, err := utils.ParseProviderModelWithDefault(spec, c.Policy.DefaultProvider)
		if err != nil {
			return fmt.Errorf("invalid model in policy: %w", err)
		}
		if seen[provider] {
			continue
		}
		seen[provider] = true
		if c.GetProviderAPIKey(provider) == "" {
			missing = append(missing, "providers."+provider+".api_key")
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{MissingFields: missing}
	}

	return nil
}

// ValidationError represents configuration validation errors
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return "missing required configuration fields: " + strings.Join(e.MissingFields, ", ")
}
