package config

import (
	"fmt"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}

	if cfg.Scroll.MaxAttempts < 1 {
		return fmt.Errorf("scroll.max_attempts must be >= 1, got %d", cfg.Scroll.MaxAttempts)
	}
	if cfg.Scroll.FastMaxAttempts < 1 {
		return fmt.Errorf("scroll.fast_max_attempts must be >= 1, got %d", cfg.Scroll.FastMaxAttempts)
	}
	if cfg.Scroll.StableRounds < 1 {
		return fmt.Errorf("scroll.stable_rounds must be >= 1, got %d", cfg.Scroll.StableRounds)
	}
	if cfg.Scroll.SettleDelay < 0 {
		return fmt.Errorf("scroll.settle_delay must be >= 0")
	}
	if cfg.Scroll.RescanDelay < 0 {
		return fmt.Errorf("scroll.rescan_delay must be >= 0")
	}

	if cfg.Interact.ExtractRetries < 1 {
		return fmt.Errorf("interact.extract_retries must be >= 1, got %d", cfg.Interact.ExtractRetries)
	}
	if cfg.Interact.ModalTimeout <= 0 {
		return fmt.Errorf("interact.modal_timeout must be > 0")
	}

	if cfg.Extract.MinPromptLen < 1 {
		return fmt.Errorf("extract.min_prompt_len must be >= 1, got %d", cfg.Extract.MinPromptLen)
	}

	if cfg.Reconcile.PopulatedThreshold < 0 {
		return fmt.Errorf("reconcile.populated_threshold must be >= 0, got %d", cfg.Reconcile.PopulatedThreshold)
	}
	if cfg.Reconcile.MaxRetries < 0 {
		return fmt.Errorf("reconcile.max_retries must be >= 0, got %d", cfg.Reconcile.MaxRetries)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level %q is not supported (valid: debug, info, warn, error)", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}
