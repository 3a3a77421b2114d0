// Package providers adapts the upstream model SDKs to a single text
// generation call.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// ErrProviderNotConfigured is returned when a candidate names a provider that
// has no generator in the registry.
var ErrProviderNotConfigured = errors.New("provider not configured")

// errEmptyResponse marks an upstream reply that carried no text.
var errEmptyResponse = errors.New("upstream returned an empty response")

// Generator performs one upstream text generation call. Implementations must
// honour ctx cancellation and return a *models.AppError on failure.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Name() string
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc struct {
	Provider string
	Fn       func(ctx context.Context, model, prompt string) (string, error)
}

func (g GeneratorFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return g.Fn(ctx, model, prompt)
}

func (g GeneratorFunc) Name() string {
	return g.Provider
}

func notConfigured(provider string) error {
	return fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
}
