package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "DATABASE_URL", "GEMINI_BASE_URL", "GEMINI_MODEL",
		"VIDEO_POLL_INTERVAL_SECONDS", "VIDEO_POLL_MAX_ATTEMPTS", "BATCH_WINDOW",
		"RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %s, want 5s", cfg.PollInterval)
	}
	if cfg.PollMaxAttempts != 0 {
		t.Fatalf("PollMaxAttempts = %d, want unbounded (0)", cfg.PollMaxAttempts)
	}
	if cfg.BatchWindow != 4 {
		t.Fatalf("BatchWindow = %d, want 4", cfg.BatchWindow)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Fatalf("RateLimitPerMin = %d, want 30", cfg.RateLimitPerMin)
	}
	if cfg.GeminiBaseURL == "" || cfg.GeminiModel == "" {
		t.Fatalf("backend defaults missing: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BATCH_WINDOW", "2")
	t.Setenv("VIDEO_POLL_INTERVAL_SECONDS", "1")
	t.Setenv("VIDEO_POLL_MAX_ATTEMPTS", "12")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9999" || cfg.BatchWindow != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PollInterval != time.Second || cfg.PollMaxAttempts != 12 {
		t.Fatalf("poll overrides not applied: %+v", cfg)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("BATCH_WINDOW", "not-a-number")
	if got := getEnvInt("BATCH_WINDOW", 4); got != 4 {
		t.Fatalf("getEnvInt = %d, want fallback 4", got)
	}
}
