// Package pkg re-exports the configuration types accepted by the builder so
// programs outside this module can construct them.
package pkg

import "github.com/Egham-7/consizen-proxy/internal/models"

type (
	ServerConfig         = models.ServerConfig
	ProviderConfig       = models.ProviderConfig
	GenerationConfig     = models.GenerationConfig
	PolicyConfig         = models.PolicyConfig
	ModelComplexity      = models.ModelComplexity
	FallbackConfig       = models.FallbackConfig
	CircuitBreakerConfig = models.CircuitBreakerConfig
	CacheConfig          = models.CacheConfig
	CacheKeyStrategy     = models.CacheKeyStrategy
	MetricsConfig        = models.MetricsConfig
	RateLimitConfig      = models.RateLimitConfig
)

const (
	ComplexityLow    = models.ComplexityLow
	ComplexityMedium = models.ComplexityMedium
	ComplexityHigh   = models.ComplexityHigh

	CacheKeyPrefix = models.CacheKeyPrefix
	CacheKeySHA256 = models.CacheKeySHA256
)
