package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Rating.EnableLengthNormalization)
	assert.Equal(t, 500, cfg.Rating.ArticleLength)
	assert.Equal(t, "json_3_parents.json", cfg.Output.TreeFile)
	assert.Equal(t, 30*time.Second, cfg.Crawler.Timeout)
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	t.Run("empty path gives defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Defaults(), cfg)
	})

	t.Run("overrides merge over defaults", func(t *testing.T) {
		path := writeConfig(t, `
input:
  frequency_file: freq.csv
rating:
  enable_length_normalization: true
  article_length: 250
crawler:
  timeout: 5s
log_level: debug
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "freq.csv", cfg.Input.FrequencyFile)
		assert.Equal(t, "top40-url-markerid.csv", cfg.Input.AllowListFile)
		assert.True(t, cfg.Rating.EnableLengthNormalization)
		assert.Equal(t, 250, cfg.Rating.ArticleLength)
		assert.Equal(t, 5*time.Second, cfg.Crawler.Timeout)
		assert.Equal(t, 4, cfg.Crawler.Workers)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "input: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "rating:\n  enable_length_normalization: true\n  article_length: 0\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("environment overrides path", func(t *testing.T) {
		path := writeConfig(t, "log_level: warn\n")
		t.Setenv(EnvConfigPath, path)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.LogLevel)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
