package builder

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

func (b *Builder) WithRateLimit(max int, expiration time.Duration, keyFunc ...func(*fiber.Ctx) string) *Builder {
	b.cfg.Server.RateLimit.Max = max
	b.cfg.Server.RateLimit.Expiration = expiration
	if len(keyFunc) > 0 {
		b.cfg.Server.RateLimit.KeyFunc = keyFunc[0]
	}
	return b
}

// WithRequestTimeout bounds a whole request, across all its upstream attempts.
func (b *Builder) WithRequestTimeout(timeout time.Duration) *Builder {
	b.cfg.Server.RequestTimeoutMs = int(timeout.Milliseconds())
	return b
}

func (b *Builder) WithMiddleware(middleware fiber.Handler) *Builder {
	b.middlewares = append(b.middlewares, middleware)
	return b
}
