package config

import (
	"errors"
	"os"
	"time"
)

// Config holds process configuration, loaded from environment variables.
type Config struct {
	Port        string
	JWTSecret   string
	DatabaseDSN string

	// RedisAddr enables the cross-process broadcast backplane when set.
	// Empty means single-process, in-memory fan-out only.
	RedisAddr string

	AIProvider string

	// TypingIdleTimeout is how long a typing indicator may go unrefreshed
	// before the hub clears it for the whole group.
	TypingIdleTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		JWTSecret:   getEnvOrDefault("JWT_SECRET", "dev"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		AIProvider:  getEnvOrDefault("AI_PROVIDER", "openai"),
	}

	timeout := getEnvOrDefault("TYPING_IDLE_TIMEOUT", "8s")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, errors.New("invalid TYPING_IDLE_TIMEOUT: " + timeout)
	}
	if d <= 0 {
		return nil, errors.New("TYPING_IDLE_TIMEOUT must be positive")
	}
	cfg.TypingIdleTimeout = d

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
