// Package builder assembles a proxy configuration in code, as an alternative
// to a config.yaml file.
package builder

import (
	"github.com/Egham-7/consizen-proxy/internal/config"

	"github.com/gofiber/fiber/v2"
)

type Builder struct {
	cfg         *config.Config
	middlewares []fiber.Handler
}

// New returns a builder seeded with the built-in defaults: in-memory cache of
// 100 entries for one hour, 30s attempt timeout, port 8080.
func New() *Builder {
	cfg := &config.Config{
		Server: defaultServer(),
	}
	cfg.ApplyDefaults()

	return &Builder{
		cfg:         cfg,
		middlewares: []fiber.Handler{},
	}
}

// Build fills anything still unset with defaults and returns the configuration.
func (b *Builder) Build() *config.Config {
	b.cfg.ApplyDefaults()
	return b.cfg
}

func (b *Builder) GetMiddlewares() []fiber.Handler {
	return b.middlewares
}
