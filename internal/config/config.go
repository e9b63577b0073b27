package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
)

// Config holds runtime settings, read from the environment and an optional .env file.
type Config struct {
	FetchTimeout     time.Duration
	MaxAttempts      int
	RetryInitialWait time.Duration
	RetryMaxWait     time.Duration
	AcceptLanguage   string

	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisURL        string

	LogLevel slog.Level
}

// Load reads .env files (missing ones are skipped) and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("config: failed to load env file", slog.String("file", f), slog.Any("error", err))
		}
	}

	return Config{
		FetchTimeout:     env.Duration("FETCH_TIMEOUT", 30*time.Second),
		MaxAttempts:      env.Int("FETCH_MAX_RETRIES", 3),
		RetryInitialWait: env.Duration("FETCH_RETRY_INITIAL_WAIT", time.Second),
		RetryMaxWait:     env.Duration("FETCH_RETRY_MAX_WAIT", 10*time.Second),
		AcceptLanguage:   env.Str("ACCEPT_LANGUAGE", "en-US"),
		CacheTTL:         env.Duration("CACHE_TTL", 0),
		CacheMaxEntries:  env.Int("CACHE_MAX_ENTRIES", 100),
		RedisURL:         env.Str("REDIS_URL", ""),
		LogLevel:         ParseLevel(env.Str("LOG_LEVEL", "warn")),
	}
}

// ParseLevel maps debug, info, warn and error to slog levels; anything else is warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// NewLogger returns a text logger on stderr. Stdout is reserved for the JSON result.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
