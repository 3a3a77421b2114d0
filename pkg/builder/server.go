package builder

import "github.com/Egham-7/consizen-proxy/internal/models"

func defaultServer() models.ServerConfig {
	return models.ServerConfig{
		Port:           "8080",
		AllowedOrigins: "*",
		Environment:    "development",
		LogLevel:       "info",
	}
}

func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

func (b *Builder) AllowedOrigins(origins string) *Builder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = level
	return b
}

// WithMetrics exposes Prometheus metrics on path ("/metrics" when empty).
func (b *Builder) WithMetrics(path string) *Builder {
	b.cfg.Metrics = models.MetricsConfig{Enabled: true, Path: path}
	return b
}
