// Package config loads the service configuration: defaults, then an
// optional YAML file, then CHALLENGES_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/handler"
	"github.com/persenaut/challenges/internal/llm"
	"github.com/persenaut/challenges/internal/observability"
	"github.com/persenaut/challenges/internal/orchestrator"
	"github.com/persenaut/challenges/internal/questiongen"
	"github.com/persenaut/challenges/internal/server"
	"github.com/persenaut/challenges/internal/similarity"
)

// Credential sources.
const (
	SecretSourceEnv    = "env"
	SecretSourceStatic = "static"
	SecretSourceAWS    = "aws"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Config is the full service configuration.
type Config struct {
	LLM      llm.Config              `yaml:"llm"`
	Secrets  SecretsConfig           `yaml:"secrets"`
	Store    StoreConfig             `yaml:"store"`
	Pipeline PipelineConfig          `yaml:"pipeline"`
	Server   server.Config           `yaml:"server"`
	Log      observability.LogConfig `yaml:"log"`
}

// SecretsConfig selects where the backend API key comes from.
type SecretsConfig struct {
	// Source is env, static or aws.
	Source string `yaml:"source"`

	// EnvVar names the variable read by the env source. Empty selects the
	// conventional variable of the LLM provider.
	EnvVar string `yaml:"env_var"`

	// APIKey is the key used by the static source.
	APIKey string `yaml:"api_key"`

	// SecretID, JSONKey and Region configure the aws source.
	SecretID string `yaml:"secret_id"`
	JSONKey  string `yaml:"json_key"`
	Region   string `yaml:"region"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`

	// Path is the SQLite database file. Empty selects the default location.
	Path string `yaml:"path"`

	// Table, Region and Endpoint configure the DynamoDB backend.
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// PipelineConfig tunes the generate-check-retry loop.
type PipelineConfig struct {
	MaxAttempts         int                  `yaml:"max_attempts"`
	HistoryLimit        int                  `yaml:"history_limit"`
	SimilarityThreshold float64              `yaml:"similarity_threshold"`
	SimilarityIgnore    []string             `yaml:"similarity_ignore"`
	Temperature         questiongen.Schedule `yaml:"temperature"`
	MaxPriorQuestions   int                  `yaml:"max_prior_questions"`
	Retention           time.Duration        `yaml:"retention"`
	StoreTimeout        time.Duration        `yaml:"store_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:     llm.DefaultConfig(),
		Secrets: SecretsConfig{Source: SecretSourceEnv},
		Store: StoreConfig{
			Backend: StoreSQLite,
			Table:   "Challenges",
		},
		Pipeline: PipelineConfig{
			MaxAttempts:         orchestrator.DefaultMaxAttempts,
			HistoryLimit:        handler.DefaultHistoryLimit,
			SimilarityThreshold: similarity.DefaultThreshold,
			Temperature:         questiongen.DefaultSchedule(),
			MaxPriorQuestions:   questiongen.DefaultConfig().MaxPriorQuestions,
			Retention:           challenge.DefaultRetention,
			StoreTimeout:        handler.DefaultStoreTimeout,
		},
		Server: server.DefaultConfig(),
		Log:    observability.LogConfig{Level: "info"},
	}
}

// Load returns the defaults overlaid with the YAML file at path (when
// non-empty) and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// APIKeyEnvVar returns the variable read by the env credential source.
func (c Config) APIKeyEnvVar() string {
	if c.Secrets.EnvVar != "" {
		return c.Secrets.EnvVar
	}
	switch c.LLM.Provider {
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "OPENROUTER_API_KEY"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}

	switch c.Secrets.Source {
	case SecretSourceEnv:
	case SecretSourceStatic:
		if c.Secrets.APIKey == "" && c.LLM.NeedsAPIKey() {
			return errors.New("secrets: static source needs api_key")
		}
	case SecretSourceAWS:
		if c.Secrets.SecretID == "" {
			return errors.New("secrets: aws source needs secret_id")
		}
	default:
		return fmt.Errorf("secrets: unknown source %q", c.Secrets.Source)
	}

	switch c.Store.Backend {
	case StoreSQLite:
	case StoreDynamoDB:
		if c.Store.Table == "" {
			return errors.New("store: dynamodb backend needs a table")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}

	p := c.Pipeline
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("pipeline: max_attempts must be at least 1, got %d", p.MaxAttempts)
	case p.HistoryLimit < 1:
		return fmt.Errorf("pipeline: history_limit must be at least 1, got %d", p.HistoryLimit)
	case p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1:
		return fmt.Errorf("pipeline: similarity_threshold must be in (0, 1], got %v", p.SimilarityThreshold)
	case p.MaxPriorQuestions < 0:
		return fmt.Errorf("pipeline: max_prior_questions must not be negative, got %d", p.MaxPriorQuestions)
	case p.Retention <= 0:
		return fmt.Errorf("pipeline: retention must be positive, got %s", p.Retention)
	case p.StoreTimeout <= 0:
		return fmt.Errorf("pipeline: store_timeout must be positive, got %s", p.StoreTimeout)
	}
	if err := p.Temperature.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	return c.Server.Validate()
}

// Generator returns the question generator configuration.
func (c Config) Generator() questiongen.Config {
	gc := questiongen.DefaultConfig()
	gc.MaxTokens = c.LLM.MaxTokens
	gc.Timeout = c.LLM.Timeout
	gc.StructuredOutput = c.LLM.StructuredOutput
	gc.Temperature = c.Pipeline.Temperature
	gc.MaxPriorQuestions = c.Pipeline.MaxPriorQuestions
	return gc
}

// Similarity returns the uniqueness checker. Words listed in
// similarity_ignore are dropped from both sides; by default every word counts.
func (c Config) Similarity() *similarity.Checker {
	var opts []similarity.Option
	if len(c.Pipeline.SimilarityIgnore) > 0 {
		opts = append(opts, similarity.WithIgnoredTokens(c.Pipeline.SimilarityIgnore...))
	}
	return similarity.New(c.Pipeline.SimilarityThreshold, opts...)
}

// Handler returns the request handler configuration.
func (c Config) Handler() handler.Config {
	return handler.Config{
		HistoryLimit: c.Pipeline.HistoryLimit,
		StoreTimeout: c.Pipeline.StoreTimeout,
	}
}
