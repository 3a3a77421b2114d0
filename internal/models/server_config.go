package models

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port             string          `json:"port,omitzero" yaml:"port"`
	AllowedOrigins   string          `json:"allowed_origins,omitzero" yaml:"allowed_origins"`
	Environment      string          `json:"environment,omitzero" yaml:"environment"`
	LogLevel         string          `json:"log_level,omitzero" yaml:"log_level"`
	RequestTimeoutMs int             `json:"request_timeout_ms,omitzero" yaml:"request_timeout_ms"`
	RateLimit        RateLimitConfig `json:"rate_limit,omitzero" yaml:"rate_limit"`
}

// MetricsConfig controls the Prometheus exposition endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitzero" yaml:"enabled"`
	Path    string `json:"path,omitzero" yaml:"path"`
}
