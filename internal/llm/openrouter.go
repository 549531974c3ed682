package llm

import "fmt"

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaBaseURL     = "http://localhost:11434/v1"
)

// OpenRouterConfig configures the OpenRouter backend.
type OpenRouterConfig struct {
	APIKey   string
	Model    string
	BaseURL  string // Default: https://openrouter.ai/api/v1
	Referer  string // Sent as HTTP-Referer.
	AppTitle string // Sent as X-Title.
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
// OpenRouter exposes an OpenAI-compatible API, so the underlying SDK is reused.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["HTTP-Referer"] = cfg.Referer
	}
	if cfg.AppTitle != "" {
		headers["X-Title"] = cfg.AppTitle
	}

	return newOpenAICompatible(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
		Headers: headers,
	}), nil
}

// NewOllamaProvider creates a provider for a self-hosted Ollama server
// through its OpenAI-compatible endpoint. Ollama ignores the API key.
func NewOllamaProvider(model, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return newOpenAICompatible(OpenAIConfig{
		APIKey:  "ollama",
		Model:   model,
		BaseURL: baseURL,
	})
}
