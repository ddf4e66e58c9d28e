package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/dagrun/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Pool.Workers != 8 {
		t.Fatalf("expected 8 workers, got %d", cfg.Pool.Workers)
	}
	if cfg.Scheduler.SubmitRetries != 3 {
		t.Fatalf("expected 3 submit retries, got %d", cfg.Scheduler.SubmitRetries)
	}
	if cfg.Scheduler.SubmitBackoff != 10*time.Millisecond {
		t.Fatalf("unexpected backoff: %v", cfg.Scheduler.SubmitBackoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Pool.Workers = -1
	if err := cfg.Validate(); !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}

	cfg = Default()
	cfg.Telemetry.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sample_rate > 1")
	}

	cfg = Default()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte("pool:\n  workers: 2\n  queue_size: 4\nscheduler:\n  submit_retries: 1\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pool.Workers != 2 || cfg.Pool.QueueSize != 4 {
		t.Fatalf("unexpected pool config: %+v", cfg.Pool)
	}
	if cfg.Scheduler.SubmitRetries != 1 {
		t.Fatalf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	// Untouched sections fall back to defaults.
	if cfg.Telemetry.Endpoint != "localhost:4318" {
		t.Fatalf("expected default telemetry endpoint, got %q", cfg.Telemetry.Endpoint)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DAGRUN_POOL_WORKERS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pool.Workers != 3 {
		t.Fatalf("expected env override to 3 workers, got %d", cfg.Pool.Workers)
	}
}

func TestLoad_InvalidFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("pool:\n  workers: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(WithConfigFile(path))
	if !errors.HasCode(err, errors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}
