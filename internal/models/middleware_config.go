package models

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig configures the sliding-window limiter in front of the API.
// KeyFunc is only settable programmatically.
type RateLimitConfig struct {
	Max        int                     `json:"max,omitzero" yaml:"max"`
	Expiration time.Duration           `json:"expiration,omitzero" yaml:"expiration"`
	KeyFunc    func(*fiber.Ctx) string `json:"-" yaml:"-"`
}
