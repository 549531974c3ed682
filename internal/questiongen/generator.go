// Package questiongen turns a theme/level pair into one multiple-choice
// question by prompting a generation backend.
package questiongen

import (
	"context"

	"github.com/persenaut/challenges/internal/challenge"
)

// Generator produces one candidate question per call.
type Generator interface {
	// Generate returns a candidate for input or a
	// *challenge.GenerationFailure. Backend success with empty content
	// yields the fallback text.
	Generate(ctx context.Context, input Input) (*challenge.GeneratedQuestion, error)
}

// Input is the context for one generation attempt.
type Input struct {
	Theme string
	Level string

	// Attempt is the zero-based attempt index. It drives the sampling
	// temperature and the prompt variation.
	Attempt int

	// PriorQuestions are texts the new question must not repeat, oldest
	// first.
	PriorQuestions []string
}
