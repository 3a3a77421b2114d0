package builder

import (
	"strings"

	"github.com/Egham-7/consizen-proxy/internal/models"
)

type ProviderBuilder struct {
	apiKey    string
	baseURL   string
	timeoutMs int
	headers   map[string]string
}

func NewProviderBuilder(apiKey string) *ProviderBuilder {
	return &ProviderBuilder{
		apiKey:  apiKey,
		headers: make(map[string]string),
	}
}

func (pb *ProviderBuilder) WithBaseURL(url string) *ProviderBuilder {
	pb.baseURL = url
	return pb
}

func (pb *ProviderBuilder) WithTimeout(ms int) *ProviderBuilder {
	pb.timeoutMs = ms
	return pb
}

func (pb *ProviderBuilder) WithHeader(key, value string) *ProviderBuilder {
	pb.headers[key] = value
	return pb
}

func (pb *ProviderBuilder) Build() models.ProviderConfig {
	return models.ProviderConfig{
		APIKey:    pb.apiKey,
		BaseURL:   pb.baseURL,
		TimeoutMs: pb.timeoutMs,
		Headers:   pb.headers,
	}
}

// AddProvider registers credentials for name (gemini, openai or anthropic).
func (b *Builder) AddProvider(name string, cfg models.ProviderConfig) *Builder {
	b.cfg.Providers[strings.ToLower(name)] = cfg
	return b
}

// AddGeminiProvider is shorthand for the provider every default policy entry uses.
func (b *Builder) AddGeminiProvider(apiKey string) *Builder {
	return b.AddProvider(models.ProviderGemini, NewProviderBuilder(apiKey).Build())
}
