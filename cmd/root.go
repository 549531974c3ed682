package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/persenaut/challenges/internal/app"
	"github.com/persenaut/challenges/internal/config"
	"github.com/persenaut/challenges/internal/observability"
	"github.com/persenaut/challenges/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "challenges",
	Short: "Unique multiple-choice challenge generator",
	Long: `challenges generates multiple-choice quiz questions for a theme and level,
rejects near-duplicates of recently stored questions and keeps accepted ones for 30 days.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CHALLENGES_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Load environment variables from this file when it exists")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration: defaults, --config file,
// environment (after --env-file), then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		err := config.LoadEnvFile(envFile)
		// The default .env is optional; an explicit one is not.
		if err != nil && (cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist)) {
			return config.Config{}, err
		}
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then CHALLENGES_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

// openStore opens the SQLite store for commands that do not need the
// generation pipeline.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath, store.WithRetention(cfg.Pipeline.Retention))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openApp builds the full service. Overrides run after flag handling.
// The caller closes the App and syncs the logger.
func openApp(ctx context.Context, cmd *cobra.Command, overrides ...func(*config.Config)) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	logger, err := observability.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve database path: %w", err)
	}

	a, err := app.New(ctx, app.Options{Config: cfg, DBPath: dbPath, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}
