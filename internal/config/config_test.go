package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Extract.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Extract.Timeout)
	}
	if cfg.Extract.MaxWorkers != 10 {
		t.Errorf("expected 10 workers, got %d", cfg.Extract.MaxWorkers)
	}
	if len(cfg.Extract.BodySelectors) != 13 || cfg.Extract.BodySelectors[0] != "article" {
		t.Errorf("unexpected body selectors: %v", cfg.Extract.BodySelectors)
	}
}

func TestDefaultSelectorsNotShared(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extract.BodySelectors[0] = "changed"
	if DefaultBodySelectors[0] != "article" {
		t.Error("DefaultConfig must copy the selector list")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsgoat.yaml")
	content := `
extract:
  timeout: 3s
  max_workers: 4
  excluded_domains: [example.org]
storage:
  backends: [csv, jsonl]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extract.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Extract.Timeout)
	}
	if cfg.Extract.MaxWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Extract.MaxWorkers)
	}
	if len(cfg.Extract.ExcludedDomains) != 1 || cfg.Extract.ExcludedDomains[0] != "example.org" {
		t.Errorf("unexpected excluded domains: %v", cfg.Extract.ExcludedDomains)
	}
	if len(cfg.Storage.Backends) != 2 {
		t.Errorf("unexpected backends: %v", cfg.Storage.Backends)
	}
	// untouched keys keep their defaults
	if cfg.Extract.MinBodyChars != 200 {
		t.Errorf("expected default min_body_chars, got %d", cfg.Extract.MinBodyChars)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NEWSGOAT_EXTRACT_MAX_WORKERS", "25")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extract.MaxWorkers != 25 {
		t.Errorf("expected env override to 25, got %d", cfg.Extract.MaxWorkers)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Extract.MaxWorkers = 0 }},
		{"zero timeout", func(c *Config) { c.Extract.Timeout = 0 }},
		{"no selectors", func(c *Config) { c.Extract.BodySelectors = nil }},
		{"bad fetcher", func(c *Config) { c.Fetcher.Type = "curl" }},
		{"bad backend", func(c *Config) { c.Storage.Backends = []string{"sqlite"} }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"cache without ttl", func(c *Config) { c.Cache.Enabled = true; c.Cache.TTL = 0 }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://news.google.com/rss"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"mailto:x@y.z", "https://", "::"} {
		if err := ValidateURL(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
