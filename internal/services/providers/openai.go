package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/models"
	"github.com/Egham-7/consizen-proxy/internal/utils/clientcache"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAI generates text through the Chat Completions API of OpenAI or any
// compatible endpoint set through base_url.
type OpenAI struct {
	config      models.ProviderConfig
	generation  models.GenerationConfig
	clientCache *clientcache.Cache[*openai.Client]
}

func NewOpenAI(cfg models.ProviderConfig, generation models.GenerationConfig) *OpenAI {
	return &OpenAI{
		config:      cfg,
		generation:  generation,
		clientCache: clientcache.NewCache[*openai.Client](),
	}
}

func (o *OpenAI) Name() string {
	return models.ProviderOpenAI
}

func (o *OpenAI) client() *openai.Client {
	key, err := clientKey(o.config)
	if err != nil {
		fiberlog.Warnf("Failed to generate config hash: %v, creating new client without caching", err)
		return o.buildClient()
	}
	client, err := o.clientCache.GetOrCreate(key, func() (*openai.Client, error) {
		fiberlog.Debugf("Creating new OpenAI client (config hash: %s)", key[:8])
		return o.buildClient(), nil
	})
	if err != nil {
		return o.buildClient()
	}
	return client
}

func (o *OpenAI) buildClient() *openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(o.config.APIKey),
		// the fallback executor owns retries across candidates
		option.WithMaxRetries(0),
	}
	if o.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.config.BaseURL))
	}
	for key, value := range o.config.Headers {
		opts = append(opts, option.WithHeader(key, value))
	}
	if o.config.TimeoutMs > 0 {
		timeout := time.Duration(o.config.TimeoutMs) * time.Millisecond
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	client := openai.NewClient(opts...)
	return &client
}

func (o *OpenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if o.generation.Temperature > 0 {
		params.Temperature = openai.Float(float64(o.generation.Temperature))
	}
	if o.generation.TopP > 0 {
		params.TopP = openai.Float(float64(o.generation.TopP))
	}
	if o.generation.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.generation.MaxOutputTokens))
	}

	resp, err := o.client().Chat.Completions.New(ctx, params)
	if err != nil {
		return "", models.NewUpstreamModelError(o.Name(), model, openAIStatus(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", models.NewUpstreamModelError(o.Name(), model, 0, errEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
