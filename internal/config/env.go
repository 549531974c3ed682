package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. Unset and empty
// variables leave the field unchanged.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	e := envReader{lookup: lookup}

	e.str(&c.LLM.Provider, "CHALLENGES_LLM_PROVIDER")
	e.str(&c.LLM.Model, "CHALLENGES_LLM_MODEL")
	e.str(&c.LLM.BaseURL, "CHALLENGES_LLM_BASE_URL")
	e.str(&c.LLM.Referer, "HTTP_REFERER", "CHALLENGES_HTTP_REFERER")
	e.str(&c.LLM.AppTitle, "APP_TITLE", "CHALLENGES_APP_TITLE")
	e.integer(&c.LLM.MaxTokens, "CHALLENGES_LLM_MAX_TOKENS")
	e.duration(&c.LLM.Timeout, "CHALLENGES_LLM_TIMEOUT")
	e.boolean(&c.LLM.StructuredOutput, "CHALLENGES_LLM_STRUCTURED")

	e.str(&c.Secrets.Source, "CHALLENGES_SECRET_SOURCE")
	e.str(&c.Secrets.EnvVar, "CHALLENGES_API_KEY_ENV")
	e.str(&c.Secrets.SecretID, "OPENROUTER_SECRET_ARN", "CHALLENGES_SECRET_ID")
	e.str(&c.Secrets.JSONKey, "CHALLENGES_SECRET_JSON_KEY")
	e.str(&c.Secrets.Region, "AWS_REGION", "CHALLENGES_SECRET_REGION")

	e.str(&c.Store.Backend, "CHALLENGES_STORE")
	e.str(&c.Store.Path, "CHALLENGES_DB")
	e.str(&c.Store.Table, "TABLE_NAME", "CHALLENGES_TABLE")
	e.str(&c.Store.Region, "AWS_REGION", "CHALLENGES_STORE_REGION")
	e.str(&c.Store.Endpoint, "CHALLENGES_DYNAMODB_ENDPOINT")

	e.integer(&c.Pipeline.MaxAttempts, "CHALLENGES_MAX_ATTEMPTS")
	e.integer(&c.Pipeline.HistoryLimit, "CHALLENGES_HISTORY_LIMIT")
	e.float(&c.Pipeline.SimilarityThreshold, "CHALLENGES_SIMILARITY_THRESHOLD")
	e.list(&c.Pipeline.SimilarityIgnore, "CHALLENGES_SIMILARITY_IGNORE")
	e.duration(&c.Pipeline.Retention, "CHALLENGES_RETENTION")
	e.duration(&c.Pipeline.StoreTimeout, "CHALLENGES_STORE_TIMEOUT")

	e.str(&c.Server.Addr, "CHALLENGES_ADDR")
	e.boolean(&c.Server.Diagnostics, "CHALLENGES_DIAGNOSTICS")
	e.list(&c.Server.AllowedOrigins, "CHALLENGES_ALLOWED_ORIGINS")
	e.duration(&c.Server.PurgeInterval, "CHALLENGES_PURGE_INTERVAL")

	e.str(&c.Log.Level, "LOG_LEVEL", "CHALLENGES_LOG_LEVEL")
	e.boolean(&c.Log.Development, "CHALLENGES_LOG_DEVELOPMENT")

	return e.err
}

// envReader applies variables in order; later names win. The first parse
// error is kept.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) get(names ...string) (string, string, bool) {
	var name, value string
	found := false
	for _, n := range names {
		if v, ok := e.lookup(n); ok && strings.TrimSpace(v) != "" {
			name, value, found = n, strings.TrimSpace(v), true
		}
	}
	return name, value, found
}

func (e *envReader) fail(name, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", name, value, err)
	}
}

func (e *envReader) str(dst *string, names ...string) {
	if _, v, ok := e.get(names...); ok {
		*dst = v
	}
}

func (e *envReader) integer(dst *int, names ...string) {
	if n, v, ok := e.get(names...); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			e.fail(n, v, err)
			return
		}
		*dst = i
	}
}

func (e *envReader) float(dst *float64, names ...string) {
	if n, v, ok := e.get(names...); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(n, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) boolean(dst *bool, names ...string) {
	if n, v, ok := e.get(names...); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(n, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(dst *time.Duration, names ...string) {
	if n, v, ok := e.get(names...); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(n, v, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) list(dst *[]string, names ...string) {
	if _, v, ok := e.get(names...); ok {
		parts := lo.Map(strings.Split(v, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
		*dst = lo.Compact(parts)
	}
}
