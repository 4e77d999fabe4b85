package config_test

import (
	"testing"
	"time"

	"github.com/betops/settlecore/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MARKET_FEED_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.RateFreshFor != 5*time.Minute {
		t.Fatalf("expected default rate freshness 5m, got %s", cfg.RateFreshFor)
	}

	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("expected default idempotency TTL 24h, got %s", cfg.IdempotencyTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("MARKET_FEED_URL", "http://feeds.internal:9101")
	t.Setenv("RATE_REFRESH_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_PER_SECOND", "10")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.MarketFeedURL != "http://feeds.internal:9101" {
		t.Fatalf("expected market feed URL override, got %s", cfg.MarketFeedURL)
	}

	if cfg.RateRefreshInterval != 30*time.Second {
		t.Fatalf("expected refresh interval override, got %s", cfg.RateRefreshInterval)
	}

	if cfg.RateLimitPerSecond != 10 {
		t.Fatalf("expected rate limit override, got %f", cfg.RateLimitPerSecond)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("DATABASE_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
