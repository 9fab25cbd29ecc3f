package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(map[string]string{"JWT_SECRET": "s"}))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.TypingWindow)
	assert.Equal(t, 5*time.Second, cfg.EventTimeout)
	assert.Equal(t, 5*time.Minute, cfg.UserCacheTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Zero(t, cfg.AsynqConcurrency)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"JWT_SECRET":        "s",
		"PORT":              "9000",
		"DB_URL":            "postgres://localhost/chat",
		"TYPING_TIMEOUT":    "1500",
		"EVENT_TIMEOUT":     "3s",
		"LOG_LEVEL":         "debug",
		"ASYNQ_CONCURRENCY": "4",
		"ASYNQ_QUEUES":      "chat=6,default=1",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 1500*time.Millisecond, cfg.TypingWindow)
	assert.Equal(t, 3*time.Second, cfg.EventTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 4, cfg.AsynqConcurrency)
	assert.Equal(t, "chat=6,default=1", cfg.AsynqQueues)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":     {},
		"postgres needs url": {"JWT_SECRET": "s", "STORE_DRIVER": "postgres"},
		"unknown driver":     {"JWT_SECRET": "s", "STORE_DRIVER": "mongo"},
		"bad duration":       {"JWT_SECRET": "s", "TYPING_TIMEOUT": "soon"},
		"bad concurrency":    {"JWT_SECRET": "s", "ASYNQ_CONCURRENCY": "-1"},
		"bad level":          {"JWT_SECRET": "s", "LOG_LEVEL": "loud"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(env(vars))
			assert.Error(t, err)
		})
	}
}
