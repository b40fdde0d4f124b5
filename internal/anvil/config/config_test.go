package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the server variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"ANVIL_DB_PATH", "ANVIL_CACHE_SIZE", "ANVIL_WORKERS", "ANVIL_APPLY_COST_MODIFIERS", "ANVIL_LOG_LEVEL"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.ApplyCostModifiers)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.HasBatchWork())
}

func TestLoadFlags(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{
		"-db", "x.db",
		"-import-rules", "rules.yaml",
		"-export-bom", "god_sword",
		"-export-out", "bom.xlsx",
		"-verbose",
	}, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.DBPath)
	assert.Equal(t, "rules.yaml", cfg.ImportRules)
	assert.True(t, cfg.HasImports())
	assert.Equal(t, "god_sword", cfg.ExportBOM)
	assert.Equal(t, "bom.xlsx", cfg.ExportOut)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.HasBatchWork())

	cfg, err = Load([]string{"-list-catalog"}, noEnvFile(t))
	require.NoError(t, err)
	assert.True(t, cfg.ListCatalog)
	assert.False(t, cfg.HasImports())
	assert.True(t, cfg.HasBatchWork())
}

func TestEnvOverridesDefaultsButNotFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANVIL_DB_PATH", "env.db")
	t.Setenv("ANVIL_CACHE_SIZE", "16")
	t.Setenv("ANVIL_WORKERS", "8")
	t.Setenv("ANVIL_APPLY_COST_MODIFIERS", "true")
	t.Setenv("ANVIL_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"-workers", "2"}, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DBPath)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.ApplyCostModifiers)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANVIL_DB_PATH=from-file.db\nANVIL_WORKERS=3\n"), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("ANVIL_DB_PATH")
		_ = os.Unsetenv("ANVIL_WORKERS")
	})

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.DBPath)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("ANVIL_CACHE_SIZE", "lots")
	_, err := Load(nil, noEnvFile(t))
	assert.Error(t, err)

	clearEnv(t)
	_, err = Load([]string{"-workers", "0"}, noEnvFile(t))
	assert.Error(t, err)

	_, err = Load([]string{"-no-such-flag"}, noEnvFile(t))
	assert.Error(t, err)
}
