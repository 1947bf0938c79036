package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("expected port 8084, got %d", cfg.Server.Port)
	}
	if cfg.Dataset.Source != DatasetSynthetic {
		t.Errorf("expected synthetic dataset, got %q", cfg.Dataset.Source)
	}
	if cfg.Dataset.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Dataset.Seed)
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("expected 30m idle timeout, got %v", cfg.Session.IdleTimeout)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if got := cfg.Address(); got != "localhost:8084" {
		t.Errorf("expected address localhost:8084, got %q", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATASET_SOURCE", "CSV")
	t.Setenv("CSV_FILE", "sales.csv")
	t.Setenv("DATASET_SEED", "7")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Dataset.Source != DatasetCSV {
		t.Errorf("expected csv source, got %q", cfg.Dataset.Source)
	}
	if cfg.Dataset.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Dataset.Seed)
	}
	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Errorf("expected 5m idle timeout, got %v", cfg.Session.IdleTimeout)
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected allowed origins: %v", cfg.Security.AllowedOrigins)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=9191\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("SERVER_PORT") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("expected port from .env, got %d", cfg.Server.Port)
	}
	if cfg.Logger.Level != "warn" {
		t.Errorf("environment should win over .env, got %q", cfg.Logger.Level)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}, "server port"},
		{"unknown dataset source", map[string]string{"DATASET_SOURCE": "duckdb"}, "dataset source"},
		{"short hash key", map[string]string{"SESSION_HASH_KEY": "short"}, "hash key"},
		{"bad block key", map[string]string{"SESSION_BLOCK_KEY": "12345"}, "block key"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "log level"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "log format"},
		{"zero rps", map[string]string{"SECURITY_RATE_LIMIT_RPS": "0"}, "RPS"},
		{"negative idle timeout", map[string]string{"SESSION_IDLE_TIMEOUT": "-1m"}, "idle timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetEnvHelpers_IgnoreMalformed(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_BOOL", "maybe")
	t.Setenv("TEST_DURATION", "soon")
	t.Setenv("TEST_UINT", "-3")

	if got := getEnvInt("TEST_INT", 5); got != 5 {
		t.Errorf("expected fallback 5, got %d", got)
	}
	if got := getEnvBool("TEST_BOOL", true); !got {
		t.Error("expected fallback true")
	}
	if got := getEnvDuration("TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("expected fallback 1s, got %v", got)
	}
	if got := getEnvUint64("TEST_UINT", 9); got != 9 {
		t.Errorf("expected fallback 9, got %d", got)
	}
}
