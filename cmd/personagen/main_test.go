package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"personagen/internal/config"
)

func TestLogLevel(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("default config keeps the terminal quiet", func(t *testing.T) {
		assert.Equal(t, zapcore.WarnLevel, logLevel(cfg, false))
	})

	t.Run("configured level is honored", func(t *testing.T) {
		cfg.Logging.Level = "info"
		assert.Equal(t, zapcore.InfoLevel, logLevel(cfg, false))

		cfg.Logging.Level = "error"
		assert.Equal(t, zapcore.ErrorLevel, logLevel(cfg, false))
	})

	t.Run("verbose beats the file", func(t *testing.T) {
		cfg.Logging.Level = "error"
		assert.Equal(t, zapcore.DebugLevel, logLevel(cfg, true))
	})

	t.Run("unknown level falls back to warn", func(t *testing.T) {
		cfg.Logging.Level = "shouty"
		assert.Equal(t, zapcore.WarnLevel, logLevel(cfg, false))
	})
}

func TestBuildLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "info"
	cfg.Logging.File = filepath.Join(t.TempDir(), "personagen.log")

	log, err := buildLogger(cfg, false)
	require.NoError(t, err)
	defer func() { _ = log.Sync() }()

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestBuildScripts_AppliesConfiguredPacing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Progress.Interval = "150ms"
	cfg.Progress.Ceiling = "90s"

	status, reasoning := buildScripts(cfg)

	assert.Equal(t, 150*time.Millisecond, status.Interval)
	assert.Equal(t, 90*time.Second, status.Ceiling)
	assert.Equal(t, 90*time.Second, reasoning.Ceiling)
	assert.NotEmpty(t, status.Steps)
	assert.NotEmpty(t, reasoning.Steps)
}
