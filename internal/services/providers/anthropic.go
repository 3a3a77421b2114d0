package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/utils/clientcache"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const defaultAnthropicMaxTokens = 1024

// Anthropic generates text through the Anthropic Messages API.
type Anthropic struct {
	config      models.ProviderConfig
	generation  models.GenerationConfig
	clientCache *clientcache.Cache[*anthropic.Client]
}

func NewAnthropic(cfg models.ProviderConfig, generation models.GenerationConfig) *Anthropic {
	return &Anthropic{
		config:      cfg,
		generation:  generation,
		clientCache: clientcache.NewCache[*anthropic.Client](),
	}
}

func (a *Anthropic) Name() string {
	return models.ProviderAnthropic
}

func (a *Anthropic) client() *anthropic.Client {
	key, err := clientKey(a.config)
	if err != nil {
		fiberlog.Warnf("Failed to generate config hash: %v, creating new client without caching", err)
		return a.buildClient()
	}
	client, err := a.clientCache.GetOrCreate(key, func() (*anthropic.Client, error) {
		fiberlog.Debugf("Creating new Anthropic client (config hash: %s)", key[:8])
		return a.buildClient(), nil
	})
	if err != nil {
		return a.buildClient()
	}
	return client
}

func (a *Anthropic) buildClient() *anthropic.Client {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(a.config.APIKey),
		option.WithMaxRetries(0),
	}
	if a.config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(a.config.BaseURL))
	}
	for key, value := range a.config.Headers {
		clientOpts = append(clientOpts, option.WithHeader(key, value))
	}
	if a.config.TimeoutMs > 0 {
		timeout := time.Duration(a.config.TimeoutMs) * time.Millisecond
		clientOpts = append(clientOpts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	client := anthropic.NewClient(clientOpts...)
	return &client
}

func (a *Anthropic) Generate(ctx context.Context, model, prompt string) (string, error) {
	maxTokens := int64(a.generation.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if a.generation.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(a.generation.Temperature))
	}
	if a.generation.TopK > 0 {
		params.TopK = anthropic.Int(int64(a.generation.TopK))
	}

	message, err := a.client().Messages.New(ctx, params)
	if err != nil {
		return "", models.NewUpstreamModelError(a.Name(), model, anthropicStatus(err), err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", models.NewUpstreamModelError(a.Name(), model, 0, errEmptyResponse)
	}
	return sb.String(), nil
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
