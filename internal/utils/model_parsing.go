package utils

import (
	"fmt"
	"strings"
)

// ParseProviderModel splits a strict "provider:model" spec, for example
// "openai:gpt-4o-mini". The provider is lowercased; both parts must be
// non-empty and the spec must contain exactly one colon.
func ParseProviderModel(modelSpec string) (provider, model string, err error) {
	spec := strings.TrimSpace(modelSpec)
	if spec == "" {
		return "", "", fmt.Errorf("model specification cannot be empty or whitespace-only")
	}

	rawProvider, rawModel, found := strings.Cut(spec, ":")
	if !found || strings.Contains(rawModel, ":") {
		return "", "", fmt.Errorf("model specification %q must be 'provider:model' with exactly one colon", modelSpec)
	}
	return splitSpec(modelSpec, rawProvider, rawModel)
}

// ParseProviderModelWithDefault accepts either "provider:model" or a bare model
// name such as "gemini-1.5-flash", which is assigned to defaultProvider.
func ParseProviderModelWithDefault(modelSpec, defaultProvider string) (provider, model string, err error) {
	spec := strings.TrimSpace(modelSpec)
	if spec == "" || strings.Contains(spec, ":") {
		return ParseProviderModel(modelSpec)
	}
	if defaultProvider == "" {
		return "", "", fmt.Errorf("model %q has no provider and no default provider is configured", modelSpec)
	}
	return splitSpec(modelSpec, defaultProvider, spec)
}

func splitSpec(original, rawProvider, rawModel string) (string, string, error) {
	provider := strings.ToLower(strings.TrimSpace(rawProvider))
	model := strings.TrimSpace(rawModel)

	switch {
	case provider == "":
		return "", "", fmt.Errorf("provider cannot be empty in model specification %q", original)
	case model == "":
		return "", "", fmt.Errorf("model cannot be empty in model specification %q", original)
	}
	return provider, model, nil
}
