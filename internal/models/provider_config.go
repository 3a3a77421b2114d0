package models

// Provider names understood by the upstream registry.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderConfig holds connection settings for one upstream generative-AI provider
type ProviderConfig struct {
	APIKey    string            `yaml:"api_key" json:"api_key,omitzero"`
	BaseURL   string            `yaml:"base_url" json:"base_url,omitzero"`     // Optional custom base URL
	TimeoutMs int               `yaml:"timeout_ms" json:"timeout_ms,omitzero"` // Optional HTTP client timeout in milliseconds
	Headers   map[string]string `yaml:"headers" json:"headers,omitzero"`       // Optional custom headers
}

// GenerationConfig holds the sampling parameters sent with every upstream call
type GenerationConfig struct {
	Temperature     float32 `yaml:"temperature" json:"temperature,omitzero"`
	TopK            float32 `yaml:"top_k" json:"top_k,omitzero"`
	TopP            float32 `yaml:"top_p" json:"top_p,omitzero"`
	MaxOutputTokens int32   `yaml:"max_output_tokens" json:"max_output_tokens,omitzero"`
}
