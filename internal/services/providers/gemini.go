package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"google.golang.org/genai"
)

// Gemini generates text through the Gemini API.
type Gemini struct {
	config      models.ProviderConfig
	generation  models.GenerationConfig
	clientCache *clientcache.Cache[*genai.Client]
}

// NewGemini creates a Gemini generator. The SDK client is built lazily on the
// first call and reused afterwards.
func NewGemini(cfg models.ProviderConfig, generation models.GenerationConfig) *Gemini {
	return &Gemini{
		config:      cfg,
		generation:  generation,
		clientCache: clientcache.NewCache[*genai.Client](),
	}
}

func (g *Gemini) Name() string {
	return models.ProviderGemini
}

func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	key, err := clientKey(g.config)
	if err != nil {
		fiberlog.Warnf("Failed to generate config hash: %v, creating new client without caching", err)
		return g.buildClient(ctx)
	}
	return g.clientCache.GetOrCreate(key, func() (*genai.Client, error) {
		fiberlog.Debugf("Creating new Gemini client (config hash: %s)", key[:8])
		return g.buildClient(ctx)
	})
}

func (g *Gemini) buildClient(ctx context.Context) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  g.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.config.BaseURL != "" {
		cc.HTTPOptions.BaseURL = g.config.BaseURL
	}
	if len(g.config.Headers) > 0 {
		cc.HTTPOptions.Headers = make(http.Header, len(g.config.Headers))
		for k, v := range g.config.Headers {
			cc.HTTPOptions.Headers.Set(k, v)
		}
	}
	if g.config.TimeoutMs > 0 {
		cc.HTTPOptions.Timeout = genai.Ptr(time.Duration(g.config.TimeoutMs) * time.Millisecond)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func (g *Gemini) contentConfig() *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: g.generation.MaxOutputTokens,
	}
	if g.generation.Temperature > 0 {
		gc.Temperature = genai.Ptr(g.generation.Temperature)
	}
	if g.generation.TopK > 0 {
		gc.TopK = genai.Ptr(g.generation.TopK)
	}
	if g.generation.TopP > 0 {
		gc.TopP = genai.Ptr(g.generation.TopP)
	}
	return gc
}

// Generate sends prompt as a single user turn and returns the response text.
func (g *Gemini) Generate(ctx context.Context, model, prompt string) (string, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", models.NewUpstreamModelError(g.Name(), model, 0, err)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), g.contentConfig())
	if err != nil {
		return "", models.NewUpstreamModelError(g.Name(), model, geminiStatus(err), err)
	}

	text := resp.Text()
	if text == "" {
		return "", models.NewUpstreamModelError(g.Name(), model, 0, errEmptyResponse)
	}
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
