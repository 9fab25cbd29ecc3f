package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreDriver selects the conversation store backend.
type StoreDriver string

const (
	StorePostgres StoreDriver = "postgres"
	StoreMemory   StoreDriver = "memory"
)

// Config is the process configuration, read from the environment once at startup.
type Config struct {
	Port         string
	DatabaseURL  string
	StoreDriver  StoreDriver
	RedisURL     string
	JWTSecret    string
	TypingWindow time.Duration
	EventTimeout time.Duration
	UserCacheTTL time.Duration
	LogLevel     slog.Level

	AsynqConcurrency int
	AsynqQueues      string
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        stringOr(getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(getenv("DB_URL")),
		RedisURL:    strings.TrimSpace(getenv("REDIS_URL")),
		JWTSecret:   getenv("JWT_SECRET"),
		AsynqQueues: strings.TrimSpace(getenv("ASYNQ_QUEUES")),
	}

	var err error
	if cfg.TypingWindow, err = duration(getenv, "TYPING_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.EventTimeout, err = duration(getenv, "EVENT_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.UserCacheTTL, err = duration(getenv, "USER_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if v := strings.TrimSpace(getenv("ASYNQ_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: ASYNQ_CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.AsynqConcurrency = n
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
	}

	switch driver := StoreDriver(strings.ToLower(strings.TrimSpace(getenv("STORE_DRIVER")))); driver {
	case "":
		cfg.StoreDriver = StorePostgres
		if cfg.DatabaseURL == "" {
			cfg.StoreDriver = StoreMemory
		}
	case StorePostgres, StoreMemory:
		cfg.StoreDriver = driver
	default:
		return Config{}, fmt.Errorf("config: unknown STORE_DRIVER %q", driver)
	}

	if cfg.StoreDriver == StorePostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DB_URL is required for the postgres store")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is not set")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func stringOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

// duration accepts Go durations ("1500ms") and bare integers as milliseconds.
func duration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback, nil
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
