package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BUSINESS_EMAIL", "")
	t.Setenv("BOOKING_RESET_DELAY", "")
	t.Setenv("REVIEWS_AUTOPLAY_INTERVAL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("EMAIL_PROVIDER", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BusinessEmail != "fairdealcarservice@gmail.com" {
		t.Fatalf("expected default business email, got %s", cfg.BusinessEmail)
	}
	if cfg.BookingResetDelay != 3*time.Second {
		t.Fatalf("expected 3s reset delay, got %s", cfg.BookingResetDelay)
	}
	if cfg.ReviewsAutoplayInterval != 5*time.Second {
		t.Fatalf("expected 5s autoplay interval, got %s", cfg.ReviewsAutoplayInterval)
	}
	if cfg.NotifyTimeout != 10*time.Second {
		t.Fatalf("expected 10s notify timeout, got %s", cfg.NotifyTimeout)
	}
	if cfg.EmailProvider != "auto" {
		t.Fatalf("expected auto email provider, got %s", cfg.EmailProvider)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("EMAIL_PROVIDER", " SES ")
	t.Setenv("RELAY_ASYNC", "true")
	t.Setenv("NOTIFY_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://fairdealcarservice.com, ,https://www.fairdealcarservice.com")
	cfg := Load()
	if cfg.Port != "5000" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.EmailProvider != "ses" {
		t.Fatalf("expected normalized provider, got %q", cfg.EmailProvider)
	}
	if !cfg.RelayAsync {
		t.Fatalf("expected async relay enabled")
	}
	if cfg.NotifyTimeout != 2*time.Second {
		t.Fatalf("expected notify timeout override, got %s", cfg.NotifyTimeout)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected invalid burst to fall back, got %d", cfg.RateLimitBurst)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://www.fairdealcarservice.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
}
