package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "astrobench.db", cfg.Store.Path)
	assert.Equal(t, 4, cfg.Sweep.Workers)
	assert.Equal(t, 168, cfg.Sweep.SceneCacheHours)
	assert.Equal(t, "info", cfg.Log.Level)
	// No silent default for the match tolerance.
	assert.Zero(t, cfg.Sweep.MaxMatchDistance)
}

func TestLoad_EnvOverride(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("ASTROBENCH_SWEEP_WORKERS", "12")
	t.Setenv("ASTROBENCH_RENDER_BASE_URL", "http://scopes.internal:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Sweep.Workers)
	assert.Equal(t, "http://scopes.internal:9000", cfg.Render.BaseURL)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
