package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/persenaut/challenges/internal/secrets"
)

func TestNewBackend(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{ProviderOpenRouter, "", "openai/gpt-4o-mini"},
		{ProviderOpenAI, "gpt-4.1-mini", "gpt-4.1-mini"},
		{ProviderOllama, "", "phi3"},
		{ProviderAnthropic, "", "claude-haiku-4-5-20251001"},
		{ProviderMock, "", "mock"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Provider = tt.provider
			cfg.Model = tt.model

			p, err := NewBackend(context.Background(), cfg, "sk-test")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ModelID() != tt.want {
				t.Errorf("ModelID = %q, want %q", p.ModelID(), tt.want)
			}
		})
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "bard"
	if _, err := NewBackend(context.Background(), cfg, "k"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_ReadyReportsMissingKey(t *testing.T) {
	cfg := DefaultConfig()
	stack, err := NewProvider(cfg, secrets.Static(""), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cred *ErrCredentials
	if err := stack.Ready(context.Background()); !errors.As(err, &cred) {
		t.Fatalf("expected ErrCredentials, got %v", err)
	}
	if stack.ModelID() != "openai/gpt-4o-mini" {
		t.Errorf("ModelID = %q", stack.ModelID())
	}
}

func TestNewProvider_MockNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	stack, err := NewProvider(cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := stack.Ready(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewProvider_KeyedProviderNeedsCredentials(t *testing.T) {
	if _, err := NewProvider(DefaultConfig(), nil, nil, nil); err == nil {
		t.Fatal("expected error without a credential source")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []func(*Config){
		func(c *Config) { c.Provider = "bard" },
		func(c *Config) { c.MaxTokens = 0 },
		func(c *Config) { c.Timeout = 0 },
		func(c *Config) { c.Retry.MaxAttempts = 0 },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}

	if DefaultConfig().Timeout != 12*time.Second {
		t.Errorf("default timeout = %s", DefaultConfig().Timeout)
	}
}
