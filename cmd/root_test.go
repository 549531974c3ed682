package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().String("config", "", "")
	c.Flags().String("db", "", "")
	c.Flags().String("env-file", ".env", "")
	c.Flags().String("log-level", "", "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestLoadConfig_Flags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "challenges.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  path: /from/file.db\nlog:\n  level: warn\n"), 0o600))
	dbPath := filepath.Join(dir, "flag.db")

	c := testCommand(t,
		"--config", cfgPath,
		"--db", dbPath,
		"--log-level", "debug",
		"--env-file", filepath.Join(dir, "missing.env"),
	)
	_, err := loadConfig(c)
	require.Error(t, err, "an explicit env file must exist")

	c = testCommand(t, "--config", cfgPath, "--db", dbPath, "--log-level", "debug")
	t.Chdir(dir)
	cfg, err := loadConfig(c)
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)

	got, err := resolveDBPath(c, cfg)
	require.NoError(t, err)
	assert.Equal(t, dbPath, got)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("CHALLENGES_HISTORY_LIMIT=9\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CHALLENGES_HISTORY_LIMIT") })

	cfg, err := loadConfig(testCommand(t, "--env-file", envPath))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Pipeline.HistoryLimit)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "1. Pregunta: ¿Qué?", firstLine("1. Pregunta: ¿Qué?\nA) uno"))
	assert.Equal(t, "-", attemptLabel(-1))
	assert.Equal(t, "1", attemptLabel(0))
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "$0.0012", formatCost(0.00123))
	assert.Equal(t, "$1.50", formatCost(1.5))
}
