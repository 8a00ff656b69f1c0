package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GENERATOR_URL", "GENERATOR_TIMEOUT", "ROUND_SECONDS", "MAX_ATTEMPTS", "SESSION_IDLE_TTL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.Port != "5175" || c.GeneratorURL != "http://localhost:5000" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.RoundSeconds != 20 || c.MaxAttempts != 5 {
		t.Fatalf("game defaults = %d/%d", c.RoundSeconds, c.MaxAttempts)
	}
	if c.GeneratorTimeout != 30*time.Second || c.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("durations = %v/%v", c.GeneratorTimeout, c.SessionIdleTTL)
	}
	if c.LogFormat != "json" {
		t.Fatalf("LogFormat = %q", c.LogFormat)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ROUND_SECONDS", "45")
	t.Setenv("MAX_ATTEMPTS", "zero")
	t.Setenv("GENERATOR_TIMEOUT", "5")
	t.Setenv("SESSION_IDLE_TTL", "2m")
	t.Setenv("JWT_EXPIRES_HOURS", "2")
	t.Setenv("LOG_FORMAT", "Console")

	c := Load()
	if c.Port != "8080" || c.RoundSeconds != 45 {
		t.Fatalf("overrides = %+v", c)
	}
	if c.MaxAttempts != 5 {
		t.Fatalf("malformed MAX_ATTEMPTS should fall back, got %d", c.MaxAttempts)
	}
	if c.GeneratorTimeout != 5*time.Second || c.SessionIdleTTL != 2*time.Minute {
		t.Fatalf("durations = %v/%v", c.GeneratorTimeout, c.SessionIdleTTL)
	}
	if c.JWTExpires != 2*time.Hour || c.LogFormat != "console" {
		t.Fatalf("jwt/log = %v/%q", c.JWTExpires, c.LogFormat)
	}
}
