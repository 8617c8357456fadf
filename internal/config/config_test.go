package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stash/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.Dir != dir {
		t.Errorf("expected dir %q, got %q", dir, cfg.Dir)
	}
	if cfg.API.BaseURL != "http://localhost:8080/api" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.Pages.NotesSize != 10 || cfg.Pages.BookmarksSize != 20 || cfg.Pages.TasksSize != 20 {
		t.Errorf("unexpected page sizes %+v", cfg.Pages)
	}
	if cfg.Pages.Debounce != 300*time.Millisecond {
		t.Errorf("expected 300ms debounce, got %v", cfg.Pages.Debounce)
	}
	if cfg.StatePath() != filepath.Join(dir, "state.db") {
		t.Errorf("unexpected state path %q", cfg.StatePath())
	}
}

func TestNew_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "api:\n  base_url: https://stash.example.com/api/\n  requests_per_second: 5\npages:\n  notes_size: 25\n  debounce: 150ms\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.API.BaseURL != "https://stash.example.com/api" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.API.BaseURL)
	}
	if cfg.API.RequestsPerSecond != 5 {
		t.Errorf("expected 5 rps, got %v", cfg.API.RequestsPerSecond)
	}
	if cfg.Pages.NotesSize != 25 {
		t.Errorf("expected notes size 25, got %d", cfg.Pages.NotesSize)
	}
	if cfg.Pages.Debounce != 150*time.Millisecond {
		t.Errorf("expected 150ms, got %v", cfg.Pages.Debounce)
	}
	// Untouched keys keep their defaults.
	if cfg.Pages.TasksSize != 20 {
		t.Errorf("expected default tasks size, got %d", cfg.Pages.TasksSize)
	}
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("STASH_API_BASE_URL", "http://10.0.0.2:9000")

	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.2:9000" {
		t.Errorf("expected env override, got %q", cfg.API.BaseURL)
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api:\n  base_url: ftp://nope\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := config.New(dir)
	if err == nil || !strings.Contains(err.Error(), "http(s)") {
		t.Fatalf("expected base url error, got %v", err)
	}
}

func TestNew_NegativeValuesRejected(t *testing.T) {
	for name, tc := range map[string]struct{ yaml, want string }{
		"rate":     {"api:\n  requests_per_second: -1\n", "api.requests_per_second"},
		"debounce": {"pages:\n  debounce: -5ms\n", "pages.debounce"},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tc.yaml), 0600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, err := config.New(dir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %s error, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "stash") {
		t.Errorf("unexpected dir %q", got)
	}
}
