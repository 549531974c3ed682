// Package app wires the configured components into a running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/challenge"
	"github.com/persenaut/challenges/internal/config"
	"github.com/persenaut/challenges/internal/handler"
	"github.com/persenaut/challenges/internal/llm"
	"github.com/persenaut/challenges/internal/orchestrator"
	"github.com/persenaut/challenges/internal/questiongen"
	"github.com/persenaut/challenges/internal/secrets"
	"github.com/persenaut/challenges/internal/server"
	"github.com/persenaut/challenges/internal/store"
	"github.com/persenaut/challenges/internal/store/dynamo"
)

// Options holds the inputs of New.
type Options struct {
	Config config.Config

	// DBPath is the SQLite database. It holds the LLM request events and,
	// with the sqlite backend, the challenges.
	DBPath string

	Logger *zap.Logger

	// Credentials overrides the source selected by Config.Secrets.
	Credentials secrets.Provider
}

// App owns the long-lived components of the service.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *store.Store
	gateway challenge.Gateway
	llm     *llm.Stack
	handler *handler.Handler
}

// New opens the stores and builds the generation pipeline. The caller must
// Close the returned App.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.Open(opts.DBPath, store.WithRetention(cfg.Pipeline.Retention))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{cfg: cfg, logger: logger, store: st}

	a.gateway, err = newGateway(ctx, cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	creds := opts.Credentials
	if creds == nil {
		creds, err = Credentials(ctx, cfg)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	a.llm, err = llm.NewProvider(cfg.LLM, secrets.NewCached(creds), st.EventRepo(), logger.Named("llm"))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build llm provider: %w", err)
	}

	gen := questiongen.New(a.llm, cfg.Generator())
	orch := orchestrator.New(gen,
		cfg.Similarity(),
		orchestrator.WithMaxAttempts(cfg.Pipeline.MaxAttempts),
		orchestrator.WithObserver(orchestrator.LogObserver(logger.Named("orchestrator"))),
	)
	a.handler = handler.New(a.gateway, orch, cfg.Handler(),
		handler.WithReadiness(a.llm),
		handler.WithLogger(logger.Named("handler")),
	)

	logger.Info("pipeline ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.ResolvedModel()),
		zap.String("store", cfg.Store.Backend),
		zap.Int("max_attempts", cfg.Pipeline.MaxAttempts),
	)
	return a, nil
}

func newGateway(ctx context.Context, cfg config.Config, st *store.Store) (challenge.Gateway, error) {
	switch cfg.Store.Backend {
	case config.StoreDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.Store.Region, cfg.Store.Endpoint)
		if err != nil {
			return nil, err
		}
		return dynamo.New(client, cfg.Store.Table, dynamo.WithRetention(cfg.Pipeline.Retention)), nil
	default:
		return st.ChallengeRepo(), nil
	}
}

// Credentials returns the credential source selected by cfg.Secrets.
func Credentials(ctx context.Context, cfg config.Config) (secrets.Provider, error) {
	switch cfg.Secrets.Source {
	case config.SecretSourceStatic:
		return secrets.Static(cfg.Secrets.APIKey), nil
	case config.SecretSourceAWS:
		sm, err := secrets.NewSecretsManager(ctx, cfg.Secrets.Region, cfg.Secrets.SecretID, cfg.Secrets.JSONKey)
		if err != nil {
			return nil, fmt.Errorf("secrets manager: %w", err)
		}
		return sm, nil
	default:
		return secrets.Env(cfg.APIKeyEnvVar()), nil
	}
}

// Handler returns the request handler.
func (a *App) Handler() *handler.Handler { return a.handler }

// Store returns the SQLite store.
func (a *App) Store() *store.Store { return a.store }

// Generate runs the pipeline once.
func (a *App) Generate(ctx context.Context, req challenge.Request) (*handler.Outcome, error) {
	return a.handler.Handle(ctx, req)
}

// Purge deletes expired challenges from the SQLite store. Other backends
// expire records on their own and return ErrPurgeUnsupported.
func (a *App) Purge(ctx context.Context) (int64, error) {
	if a.cfg.Store.Backend != config.StoreSQLite {
		return 0, ErrPurgeUnsupported
	}
	return a.store.ChallengeRepo().PurgeExpired(ctx)
}

// ErrPurgeUnsupported is returned by Purge for backends with native TTL.
var ErrPurgeUnsupported = errors.New("purge is only needed for the sqlite backend")

// Serve runs the HTTP server and, when configured, the purge loop until
// ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := server.New(a.cfg.Server, a.handler, a.logger.Named("http"))

	if a.cfg.Server.PurgeInterval > 0 && a.cfg.Store.Backend == config.StoreSQLite {
		go a.purgeLoop(ctx, a.cfg.Server.PurgeInterval)
	}
	return srv.Run(ctx)
}

func (a *App) purgeLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Purge(ctx)
			if err != nil {
				a.logger.Warn("purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				a.logger.Info("purged expired challenges", zap.Int64("deleted", n))
			}
		}
	}
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}
