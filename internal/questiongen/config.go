package questiongen

import (
	"fmt"
	"time"
)

// FallbackText is returned when the backend succeeds without content.
const FallbackText = "Reto no disponible"

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every non-fallback candidate; the first
	// failure stops the chain.
	Validators []Validator

	// MaxTokens is the token budget for the response.
	MaxTokens int

	// Temperature maps the attempt index to a sampling temperature.
	Temperature Schedule

	// MaxPriorQuestions caps the "already asked" list in the prompt.
	// The most recent entries are kept.
	MaxPriorQuestions int

	// Timeout bounds one backend call.
	Timeout time.Duration

	// StructuredOutput requests a JSON object validated by schema instead
	// of free text.
	StructuredOutput bool
}

// DefaultConfig returns a Config with the standard validator chain and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&LengthValidator{Max: 2000},
			&FormatValidator{},
		},
		MaxTokens:         512,
		Temperature:       DefaultSchedule(),
		MaxPriorQuestions: 10,
		Timeout:           12 * time.Second,
		StructuredOutput:  true,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("generation timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxPriorQuestions < 0 {
		return fmt.Errorf("max prior questions must not be negative, got %d", c.MaxPriorQuestions)
	}
	return c.Temperature.Validate()
}
