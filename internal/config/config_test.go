package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WATCH_THRESHOLD_SECONDS", "BACKEND_TIMEOUT", "SESSION_IDLE_TTL", "SESSION_SWEEP_INTERVAL", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.WatchThresholdSeconds != 30 {
		t.Errorf("WatchThresholdSeconds = %d, want 30", cfg.WatchThresholdSeconds)
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Errorf("BackendTimeout = %v, want 10s", cfg.BackendTimeout)
	}
	if cfg.SessionIdleTTL != 30*time.Minute || cfg.SessionSweepInterval != time.Minute {
		t.Errorf("session timings = %v/%v", cfg.SessionIdleTTL, cfg.SessionSweepInterval)
	}
	if cfg.CORSOrigins != "*" {
		t.Errorf("CORSOrigins = %q, want *", cfg.CORSOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WATCH_THRESHOLD_SECONDS", "45")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("SESSION_IDLE_TTL", "5m")

	cfg := Load()
	if cfg.Port != "9090" || cfg.WatchThresholdSeconds != 45 {
		t.Errorf("got port %q threshold %d", cfg.Port, cfg.WatchThresholdSeconds)
	}
	if cfg.BackendTimeout != 3*time.Second || cfg.SessionIdleTTL != 5*time.Minute {
		t.Errorf("got timeout %v ttl %v", cfg.BackendTimeout, cfg.SessionIdleTTL)
	}
}

func TestGetEnvHelpers_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_NEG", "-4")
	t.Setenv("X_DUR", "soon")

	if got := getEnvInt("X_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want 7", got)
	}
	if got := getEnvInt("X_NEG", 7); got != 7 {
		t.Errorf("getEnvInt negative = %d, want 7", got)
	}
	if got := getEnvDuration("X_DUR", time.Second); got != time.Second {
		t.Errorf("getEnvDuration = %v, want 1s", got)
	}
}
