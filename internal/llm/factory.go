package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/secrets"
	"github.com/persenaut/challenges/internal/store"
)

// NewBackend creates the bare backend for cfg authenticated with apiKey.
func NewBackend(ctx context.Context, cfg Config, apiKey string) (Provider, error) {
	model := cfg.ResolvedModel()

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderOpenRouter:
		p, err = NewOpenRouterProvider(OpenRouterConfig{
			APIKey:   apiKey,
			Model:    model,
			BaseURL:  cfg.BaseURL,
			Referer:  cfg.Referer,
			AppTitle: cfg.AppTitle,
		})
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(OpenAIConfig{APIKey: apiKey, Model: model, BaseURL: cfg.BaseURL})
	case ProviderOllama:
		p = NewOllamaProvider(model, cfg.BaseURL)
	case ProviderAnthropic:
		p, err = NewAnthropicProvider(apiKey, model)
	case ProviderGemini:
		p, err = NewGeminiProvider(ctx, apiKey, model)
	case ProviderMock:
		p = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return p, nil
}

// NewProvider builds the full provider stack for cfg:
//
//	caller → retry → logging → keyed → backend
//
// The backend is created lazily from creds on the first call. Providers that
// need no key skip the credential lookup.
func NewProvider(cfg Config, creds secrets.Provider, eventRepo store.EventRepo, logger *zap.Logger) (*Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case !cfg.NeedsAPIKey():
		creds = secrets.Static("unused")
	case creds == nil:
		return nil, fmt.Errorf("%s provider needs a credential source", cfg.Provider)
	}

	keyed := NewKeyed(creds, cfg.ResolvedModel(), func(ctx context.Context, apiKey string) (Provider, error) {
		return NewBackend(ctx, cfg, apiKey)
	})

	logged := WithLogging(keyed, cfg.Provider, eventRepo, logger)
	return &Stack{Provider: WithRetry(logged, cfg.Retry), keyed: keyed}, nil
}

// Stack is the decorated provider returned by NewProvider.
type Stack struct {
	Provider
	keyed *Keyed
}

// Ready reports whether the credential resolves and the backend builds.
func (s *Stack) Ready(ctx context.Context) error {
	return s.keyed.Ready(ctx)
}
