package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
		"RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
		"RATE_LIMIT_PREFIX", "RATE_LIMIT_DEBUG",
	} {
		os.Unsetenv(k)
	}

	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Error("limiter disabled by default")
	}
	if cfg.Capacity != 60 {
		t.Errorf("capacity = %d, want 60", cfg.Capacity)
	}
	// The limiter runs globally ahead of authentication, so the default
	// bucket key must not include the (never populated) user facet.
	if cfg.KeyStrategy != "ip_route" {
		t.Errorf("key strategy = %q, want %q", cfg.KeyStrategy, "ip_route")
	}
	if cfg.Prefix != "rl" {
		t.Errorf("prefix = %q, want %q", cfg.Prefix, "rl")
	}
}

func TestLoadRateLimitConfigNormalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 {
		t.Errorf("refill tokens = %d, want 1", cfg.RefillTokens)
	}
	if want := 5 * 2 * time.Second; cfg.TTL != want {
		t.Errorf("ttl = %v, want %v", cfg.TTL, want)
	}
}
