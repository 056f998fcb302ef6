package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/tools/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, indicator.DefaultConfig(), cfg.Indicators)
		assert.Equal(t, "info", cfg.LogLevel)

		session, err := cfg.SessionDuration()
		require.NoError(t, err)
		assert.Zero(t, session)
	})

	t.Run("overrides defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
indicators:
  sma_periods: [5, 10]
  rsi_period: 7
  bollinger:
    mult: 2.5
session: 1d
skip_invalid: true
`))
		require.NoError(t, err)
		assert.Equal(t, []int{5, 10}, cfg.Indicators.SMAPeriods)
		assert.Equal(t, 7, cfg.Indicators.RSIPeriod)
		assert.Equal(t, 2.5, cfg.Indicators.Bollinger.Multiplier)
		assert.Equal(t, 20, cfg.Indicators.Bollinger.Period)
		assert.Equal(t, []int{12, 26, 50}, cfg.Indicators.EMAPeriods)
		assert.True(t, cfg.SkipInvalid)

		session, err := cfg.SessionDuration()
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, session)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "indicators:\n  sma_period: 5\n"))
		assert.ErrorContains(t, err, "sma_period")
	})

	t.Run("invalid indicators", func(t *testing.T) {
		_, err := Load(writeConfig(t, "indicators:\n  rsi_period: 0\n  macd: {fast: 30, slow: 26, signal: 9}\n"))
		require.ErrorIs(t, err, indicator.ErrConfiguration)
		assert.ErrorContains(t, err, "rsi_period")
		assert.ErrorContains(t, err, "macd.fast")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
		assert.ErrorContains(t, err, "read config")
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvSession, "4h")

		cfg, err := Load("")
		require.NoError(t, err)
		level, err := cfg.Level()
		require.NoError(t, err)
		assert.Equal(t, log.DebugLevel, level)
		session, _ := cfg.SessionDuration()
		assert.Equal(t, 4*time.Hour, session)
	})

	t.Run("invalid runner settings", func(t *testing.T) {
		t.Setenv(EnvLogLevel, "loud")
		_, err := Load(writeConfig(t, "session: soon\n"))
		assert.ErrorContains(t, err, "session")
		assert.ErrorContains(t, err, "log_level")
	})
}
