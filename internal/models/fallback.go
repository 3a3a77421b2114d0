package models

import "time"

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool `json:"enabled,omitzero" yaml:"enabled"`
	FailureThreshold int  `json:"failure_threshold,omitzero" yaml:"failure_threshold,omitempty"` // Number of failures before opening circuit
	SuccessThreshold int  `json:"success_threshold,omitzero" yaml:"success_threshold,omitempty"` // Number of successes to close circuit
	TimeoutMs        int  `json:"timeout_ms,omitzero" yaml:"timeout_ms,omitempty"`               // Time an open circuit waits before half-opening
}

// FallbackConfig holds the candidate execution configuration
type FallbackConfig struct {
	AttemptTimeoutMs int                   `json:"attempt_timeout_ms,omitzero" yaml:"attempt_timeout_ms"`
	CircuitBreaker   *CircuitBreakerConfig `json:"circuit_breaker,omitzero" yaml:"circuit_breaker,omitempty"`
}

// AttemptTimeout returns the per-candidate upstream timeout.
func (f FallbackConfig) AttemptTimeout() time.Duration {
	return time.Duration(f.AttemptTimeoutMs) * time.Millisecond
}

// AttemptResult records the outcome of one candidate attempt
type AttemptResult struct {
	Candidate Candidate
	Error     error
	Duration  time.Duration
}
