package providers

import (
	"crypto/sha256"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Registry maps provider names to generators.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// NewRegistryFromConfig registers a generator for every known provider that
// has an API key in providers. Providers without a key are skipped; requests
// routed to them fail with ErrProviderNotConfigured.
func NewRegistryFromConfig(providers models.ProvidersConfig, generation models.GenerationConfig) *Registry {
	r := NewRegistry()
	for _, name := range slices.Sorted(maps.Keys(providers)) {
		cfg := providers[name]
		if cfg.APIKey == "" {
			fiberlog.Warnf("Provider %s has no api_key, skipping", name)
			continue
		}

		switch strings.ToLower(name) {
		case models.ProviderGemini:
			r.Register(NewGemini(cfg, generation))
		case models.ProviderOpenAI:
			r.Register(NewOpenAI(cfg, generation))
		case models.ProviderAnthropic:
			r.Register(NewAnthropic(cfg, generation))
		default:
			fiberlog.Warnf("Unknown provider %s in configuration, skipping", name)
			continue
		}
		fiberlog.Infof("Registered upstream provider %s", name)
	}
	return r
}

// Register adds or replaces the generator for g.Name().
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[strings.ToLower(g.Name())] = g
}

// Get returns the generator for provider.
func (r *Registry) Get(provider string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[strings.ToLower(provider)]
	if !ok {
		return nil, notConfigured(provider)
	}
	return g, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.generators))
}

// clientKey identifies an SDK client configuration without embedding the API key.
func clientKey(cfg models.ProviderConfig) (string, error) {
	apiKeyHash := sha256.Sum256([]byte(cfg.APIKey))
	return clientcache.ConfigKey(struct {
		BaseURL    string
		APIKeyHash string
		TimeoutMs  int
		Headers    map[string]string
	}{
		BaseURL:    cfg.BaseURL,
		APIKeyHash: fmt.Sprintf("%x", apiKeyHash[:8]),
		TimeoutMs:  cfg.TimeoutMs,
		Headers:    cfg.Headers,
	})
}
