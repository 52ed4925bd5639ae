package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the gallery scraper.
type Config struct {
	Browser   BrowserConfig   `mapstructure:"browser"   yaml:"browser"`
	Scroll    ScrollConfig    `mapstructure:"scroll"    yaml:"scroll"`
	Interact  InteractConfig  `mapstructure:"interact"  yaml:"interact"`
	Extract   ExtractConfig   `mapstructure:"extract"   yaml:"extract"`
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// BrowserConfig controls the browser automation session.
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless"     yaml:"headless"`
	WindowSize  string        `mapstructure:"window_size"  yaml:"window_size"`
	UserAgent   string        `mapstructure:"user_agent"   yaml:"user_agent"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"  yaml:"nav_timeout"`
	BlockImages bool          `mapstructure:"block_images" yaml:"block_images"`
}

// ScrollConfig controls lazy-load scrolling on gallery pages.
//
// Infinite-scroll galleries only materialize DOM nodes near the viewport,
// so enumerating before scroll-triggering silently under-counts. The stop
// thresholds were tuned against one site, which is why they are settings
// rather than constants.
type ScrollConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"      yaml:"max_attempts"`
	FastMaxAttempts int           `mapstructure:"fast_max_attempts" yaml:"fast_max_attempts"`
	StableRounds    int           `mapstructure:"stable_rounds"     yaml:"stable_rounds"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"      yaml:"settle_delay"`
	SettleCycles    int           `mapstructure:"settle_cycles"     yaml:"settle_cycles"`
	RescanDelay     time.Duration `mapstructure:"rescan_delay"      yaml:"rescan_delay"`
}

// InteractConfig controls the per-item open/extract/close cycle.
type InteractConfig struct {
	OpenSettle     time.Duration `mapstructure:"open_settle"     yaml:"open_settle"`
	CloseSettle    time.Duration `mapstructure:"close_settle"    yaml:"close_settle"`
	ExtractRetries int           `mapstructure:"extract_retries" yaml:"extract_retries"`
	ModalTimeout   time.Duration `mapstructure:"modal_timeout"   yaml:"modal_timeout"`
}

// ExtractConfig controls detail-view data extraction.
type ExtractConfig struct {
	MinPromptLen int `mapstructure:"min_prompt_len" yaml:"min_prompt_len"`
}

// ReconcileConfig controls catalog reconciliation and worklist driving.
type ReconcileConfig struct {
	// PopulatedThreshold is the record count above which a subsection is
	// considered complete. Counts at or below it re-enter the worklist.
	PopulatedThreshold int           `mapstructure:"populated_threshold" yaml:"populated_threshold"`
	MaxRetries         int           `mapstructure:"max_retries"         yaml:"max_retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"         yaml:"retry_delay"`
	SubsectionDelay    time.Duration `mapstructure:"subsection_delay"    yaml:"subsection_delay"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:    true,
			WindowSize:  "1280,720",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			NavTimeout:  15 * time.Second,
			BlockImages: false,
		},
		Scroll: ScrollConfig{
			MaxAttempts:     15,
			FastMaxAttempts: 10,
			StableRounds:    3,
			SettleDelay:     3 * time.Second,
			SettleCycles:    3,
			RescanDelay:     5 * time.Second,
		},
		Interact: InteractConfig{
			OpenSettle:     3 * time.Second,
			CloseSettle:    2 * time.Second,
			ExtractRetries: 3,
			ModalTimeout:   10 * time.Second,
		},
		Extract: ExtractConfig{
			MinPromptLen: 20,
		},
		Reconcile: ReconcileConfig{
			PopulatedThreshold: 2,
			MaxRetries:         2,
			RetryDelay:         5 * time.Second,
			SubsectionDelay:    3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
