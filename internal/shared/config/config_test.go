package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "WORKERS", "APP_HANDLER", "DATABASE_URL", "MONGODB_URI", "GUIDELINE_STORE", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.Workers != 2 {
		t.Fatalf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.AppHandler != "guidelines" {
		t.Fatalf("expected guidelines handler, got %q", cfg.AppHandler)
	}
	if cfg.GuidelineStore != "memory" {
		t.Fatalf("expected memory store, got %q", cfg.GuidelineStore)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected 10s shutdown timeout, got %s", cfg.ShutdownTimeout)
	}
}

func TestLoadReadsPortFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9123")
	t.Setenv("WORKERS", "0")

	cfg := Load()
	if cfg.Port != "9123" {
		t.Fatalf("expected port 9123, got %q", cfg.Port)
	}
	if cfg.Workers != 1 {
		t.Fatalf("expected workers clamped to 1, got %d", cfg.Workers)
	}
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_HANDLER=assistant\nPORT=7000\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7100")
	t.Setenv("APP_HANDLER", "")
	os.Unsetenv("APP_HANDLER")

	cfg := Load()
	if cfg.Port != "7100" {
		t.Fatalf("expected env PORT to win, got %q", cfg.Port)
	}
	if cfg.AppHandler != "assistant" {
		t.Fatalf("expected handler from .env, got %q", cfg.AppHandler)
	}
}

func TestNormalizeGuidelineStore(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		pg    string
		mongo string
		want  string
	}{
		{name: "explicit mongo", raw: "MongoDB", want: "mongo"},
		{name: "explicit memory wins over url", raw: "memory", pg: "postgres://x", want: "memory"},
		{name: "postgres from url", pg: "postgres://x", mongo: "mongodb://y", want: "postgres"},
		{name: "mongo from uri", mongo: "mongodb://y", want: "mongo"},
		{name: "fallback", want: "memory"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeGuidelineStore(tt.raw, tt.pg, tt.mongo); got != tt.want {
				t.Fatalf("normalizeGuidelineStore = %q, want %q", got, tt.want)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
