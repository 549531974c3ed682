package llm

import (
	"fmt"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// Config holds the generation backend configuration. The API key is not part
// of it; it comes from a secrets.Provider when the backend is built.
type Config struct {
	// Provider selects the backend: openrouter, openai, ollama, anthropic,
	// gemini or mock.
	Provider string `yaml:"provider"`

	// Model is a provider model ID or one of the friendly aliases. Empty
	// selects the provider default.
	Model string `yaml:"model"`

	// BaseURL overrides the API endpoint for OpenAI-compatible backends.
	BaseURL string `yaml:"base_url"`

	// Referer and AppTitle are sent to OpenRouter as HTTP-Referer and
	// X-Title for attribution.
	Referer  string `yaml:"referer"`
	AppTitle string `yaml:"app_title"`

	// MaxTokens is the response token budget.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds a single backend call.
	Timeout time.Duration `yaml:"timeout"`

	// StructuredOutput asks the backend for a JSON object validated
	// against a schema instead of free text.
	StructuredOutput bool `yaml:"structured_output"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig configures retry behavior for transient failures inside a
// single generation attempt. MaxAttempts of 1 disables it; the
// orchestrator's attempt budget is the primary retry mechanism.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

var defaultModels = map[string]string{
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOllama:     "phi3",
	ProviderAnthropic:  "claude-haiku",
	ProviderGemini:     "gemini-flash",
	ProviderMock:       "mock",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:         ProviderOpenRouter,
		AppTitle:         "Challenge Generator",
		MaxTokens:        512,
		Timeout:          12 * time.Second,
		StructuredOutput: true,
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ResolvedModel returns the configured model or the provider default.
func (c Config) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// NeedsAPIKey reports whether the selected provider authenticates with a key.
func (c Config) NeedsAPIKey() bool {
	return c.Provider != ProviderMock && c.Provider != ProviderOllama
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive, got %s", c.Timeout)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
