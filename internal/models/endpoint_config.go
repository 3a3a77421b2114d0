package models

import "strings"

// ProvidersConfig maps a provider name ("gemini", "openai", "anthropic") to its settings
type ProvidersConfig map[string]ProviderConfig

// Get looks a provider up case-insensitively
func (p ProvidersConfig) Get(name string) (ProviderConfig, bool) {
	cfg, ok := p[strings.ToLower(name)]
	return cfg, ok
}
