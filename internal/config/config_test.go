package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-sentinel/internal/core"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, core.DefaultStorageKey, cfg.Storage.Key)
	assert.Equal(t, 2*time.Second, cfg.Monitor.OrgPause)
	assert.Equal(t, time.Minute, cfg.Monitor.CycleDelay)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Models.Scout)
	assert.Equal(t, 30, cfg.AI.RequestsPerMinute)
	assert.Equal(t, "sentinel_alerts", cfg.Notify.AMQP.Exchange)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("SENTINEL_MONITOR_CYCLE_DELAY", "5m")
	t.Setenv("SENTINEL_STORAGE_BACKEND", "sqlite")
	t.Setenv("SENTINEL_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.CycleDelay)
	assert.Equal(t, "sqlite", cfg.StoreConfig().Backend)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "secret", cfg.AIClientConfig().APIKey)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
storage:
  backend: s3
  s3:
    bucket: sentinel-state
    endpoint: http://localhost:9000
notify:
  telegram:
    token: abc
    chat_id: 42
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "sentinel-state", cfg.StoreConfig().S3.Bucket)
	assert.Equal(t, int64(42), cfg.NotifierConfig().Telegram.ChatID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"unknown backend":       func(c *Config) { c.Storage.Backend = "redis" },
		"postgres without url":  func(c *Config) { c.Storage.Backend = "postgres" },
		"s3 without bucket":     func(c *Config) { c.Storage.Backend = "s3" },
		"zero pause":            func(c *Config) { c.Monitor.OrgPause = 0 },
		"bad provider":          func(c *Config) { c.AI.Provider = "openai" },
		"telegram without chat": func(c *Config) { c.Notify.Telegram.Token = "abc" },
		"port out of range":     func(c *Config) { c.Server.Port = 70000 },
		"missing storage key":   func(c *Config) { c.Storage.Key = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	ok := base
	ok.Storage.Backend = "postgres"
	ok.Storage.DatabaseURL = "postgres://localhost/sentinel"
	assert.NoError(t, ok.Validate())
}
