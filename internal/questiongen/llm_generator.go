package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/llm"
)

// LLMGenerator implements Generator using an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Generate produces one candidate for input.
func (g *LLMGenerator) Generate(ctx context.Context, input Input) (*challenge.GeneratedQuestion, error) {
	ctx = llm.WithAttempt(llm.WithPurpose(ctx, llm.PurposeChallenge), input.Attempt)
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	userMsg := buildUserMessage(input, g.config)
	temperature := g.config.Temperature.At(input.Attempt)

	req := llm.Request{
		System: buildSystemPrompt(g.config.StructuredOutput),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: temperature,
	}
	if g.config.StructuredOutput {
		req.Schema = ChallengeSchema
	}

	fail := func(err error) error {
		var cred *llm.ErrCredentials
		if errors.As(err, &cred) {
			return &challenge.ConfigurationError{Err: err}
		}
		return &challenge.GenerationFailure{Attempt: input.Attempt, Err: err}
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fail(fmt.Errorf("LLM generation failed: %w", err))
	}

	text := resp.Text
	if g.config.StructuredOutput && resp.Content != nil {
		var out challengeOutput
		if err := json.Unmarshal(resp.Content, &out); err != nil {
			return nil, fail(fmt.Errorf("failed to parse LLM response: %w", err))
		}
		text = out.Challenge
	}
	text = Normalize(text)

	q := &challenge.GeneratedQuestion{
		Text:        text,
		Prompt:      userMsg,
		Attempt:     input.Attempt,
		Temperature: temperature,
		Model:       resp.Model,
	}
	if q.Model == "" {
		q.Model = g.provider.ModelID()
	}

	if text == "" {
		q.Text = FallbackText
		return q, nil
	}

	for _, v := range g.config.Validators {
		if verr := v.Validate(text, input); verr != nil {
			return nil, fail(verr)
		}
	}

	return q, nil
}
