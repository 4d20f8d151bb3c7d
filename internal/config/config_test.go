package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.CounterBackend != "redis" {
		t.Errorf("expected default counter backend redis, got %s", cfg.CounterBackend)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected default sweep interval 1m, got %s", cfg.SweepInterval)
	}
	if !cfg.SweepEnabled {
		t.Error("expected sweep enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("COMPENSATION_MAX_ATTEMPTS", "3")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("expected sweep interval 30s, got %s", cfg.SweepInterval)
	}
	if cfg.SweepEnabled {
		t.Error("expected sweep disabled")
	}
	if cfg.CompensationMaxAttempts != 3 {
		t.Errorf("expected 3 compensation attempts, got %d", cfg.CompensationMaxAttempts)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SWEEP_BATCH_SIZE", "not-a-number")
	t.Setenv("SWEEP_INTERVAL", "soon")

	cfg := Load()

	if cfg.SweepBatchSize != 100 {
		t.Errorf("expected fallback batch size 100, got %d", cfg.SweepBatchSize)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected fallback interval 1m, got %s", cfg.SweepInterval)
	}
}
