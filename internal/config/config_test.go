package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nav timeout", func(c *Config) { c.Browser.NavTimeout = 0 }},
		{"zero scroll attempts", func(c *Config) { c.Scroll.MaxAttempts = 0 }},
		{"zero stable rounds", func(c *Config) { c.Scroll.StableRounds = 0 }},
		{"negative settle delay", func(c *Config) { c.Scroll.SettleDelay = -time.Second }},
		{"negative rescan delay", func(c *Config) { c.Scroll.RescanDelay = -time.Second }},
		{"zero extract retries", func(c *Config) { c.Interact.ExtractRetries = 0 }},
		{"zero modal timeout", func(c *Config) { c.Interact.ModalTimeout = 0 }},
		{"zero prompt length", func(c *Config) { c.Extract.MinPromptLen = 0 }},
		{"negative threshold", func(c *Config) { c.Reconcile.PopulatedThreshold = -1 }},
		{"negative retries", func(c *Config) { c.Reconcile.MaxRetries = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Reconcile.PopulatedThreshold != 2 {
		t.Errorf("threshold = %d", cfg.Reconcile.PopulatedThreshold)
	}
	if !cfg.Browser.Headless {
		t.Error("headless should default to true")
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "galleryscraper.yaml")
	content := `
browser:
  headless: false
scroll:
  max_attempts: 7
reconcile:
  populated_threshold: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Browser.Headless {
		t.Error("file override for headless ignored")
	}
	if cfg.Scroll.MaxAttempts != 7 {
		t.Errorf("max_attempts = %d", cfg.Scroll.MaxAttempts)
	}
	if cfg.Reconcile.PopulatedThreshold != 5 {
		t.Errorf("threshold = %d", cfg.Reconcile.PopulatedThreshold)
	}
	// Untouched keys keep their defaults.
	if cfg.Scroll.FastMaxAttempts != 10 {
		t.Errorf("fast_max_attempts = %d", cfg.Scroll.FastMaxAttempts)
	}
}
