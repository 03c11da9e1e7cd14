package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TYPING_IDLE_TIMEOUT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DATABASE_DSN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("AIProvider = %q, want openai", cfg.AIProvider)
	}
	if cfg.TypingIdleTimeout != 8*time.Second {
		t.Errorf("TypingIdleTimeout = %v, want 8s", cfg.TypingIdleTimeout)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TYPING_IDLE_TIMEOUT", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.TypingIdleTimeout != 30*time.Second {
		t.Errorf("TypingIdleTimeout = %v, want 30s", cfg.TypingIdleTimeout)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("TYPING_IDLE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparseable timeout")
	}

	t.Setenv("TYPING_IDLE_TIMEOUT", "-5s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for non-positive timeout")
	}
}
