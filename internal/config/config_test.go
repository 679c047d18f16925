package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_DSN", "SESSION_SECRET", "COOKIE_SECURE",
		"SESSION_TTL_SECONDS", "SESSION_SWEEP_INTERVAL_SECONDS",
		"RATE_LIMIT_PER_MIN", "RATE_LIMIT_BURST",
		"SEED_DEMO_DATA", "SEED_ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("expected default session TTL 8h, got %v", cfg.SessionTTL)
	}
	if cfg.SessionSweep != 10*time.Minute {
		t.Fatalf("expected default sweep interval 10m, got %v", cfg.SessionSweep)
	}
	if cfg.RateLimitPerMinute != 120 || cfg.RateLimitBurst != 30 {
		t.Fatalf("unexpected rate limit defaults: %d/%d", cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	}
	if !cfg.SeedDemoData || cfg.SeedAdminPassword != "admin" {
		t.Fatalf("unexpected seed defaults: %v %q", cfg.SeedDemoData, cfg.SeedAdminPassword)
	}
	if cfg.CookieSecure {
		t.Fatal("expected cookieSecure to default off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DSN", "postgres://localhost/gamezone")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("RATE_LIMIT_PER_MIN", "10")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://localhost/gamezone" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.CookieSecret != "s3cret" || !cfg.CookieSecure {
		t.Fatalf("unexpected cookie settings: %q %v", cfg.CookieSecret, cfg.CookieSecure)
	}
	if cfg.SessionTTL != time.Minute {
		t.Fatalf("expected session TTL 1m, got %v", cfg.SessionTTL)
	}
	if cfg.RateLimitPerMinute != 10 {
		t.Fatalf("expected rate limit 10, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.SeedDemoData {
		t.Fatal("expected seeding disabled")
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "not-a-number")
	t.Setenv("COOKIE_SECURE", "maybe")
	t.Setenv("RATE_LIMIT_PER_MIN", "")

	cfg := Load()

	if cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("expected fallback TTL 8h, got %v", cfg.SessionTTL)
	}
	if cfg.CookieSecure {
		t.Fatal("expected fallback cookieSecure false")
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected fallback rate limit 120, got %d", cfg.RateLimitPerMinute)
	}
}
