package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("GALLERYSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("galleryscraper")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".galleryscraper"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.nav_timeout", cfg.Browser.NavTimeout)
	v.SetDefault("browser.block_images", cfg.Browser.BlockImages)

	v.SetDefault("scroll.max_attempts", cfg.Scroll.MaxAttempts)
	v.SetDefault("scroll.fast_max_attempts", cfg.Scroll.FastMaxAttempts)
	v.SetDefault("scroll.stable_rounds", cfg.Scroll.StableRounds)
	v.SetDefault("scroll.settle_delay", cfg.Scroll.SettleDelay)
	v.SetDefault("scroll.settle_cycles", cfg.Scroll.SettleCycles)
	v.SetDefault("scroll.rescan_delay", cfg.Scroll.RescanDelay)

	v.SetDefault("interact.open_settle", cfg.Interact.OpenSettle)
	v.SetDefault("interact.close_settle", cfg.Interact.CloseSettle)
	v.SetDefault("interact.extract_retries", cfg.Interact.ExtractRetries)
	v.SetDefault("interact.modal_timeout", cfg.Interact.ModalTimeout)

	v.SetDefault("extract.min_prompt_len", cfg.Extract.MinPromptLen)

	v.SetDefault("reconcile.populated_threshold", cfg.Reconcile.PopulatedThreshold)
	v.SetDefault("reconcile.max_retries", cfg.Reconcile.MaxRetries)
	v.SetDefault("reconcile.retry_delay", cfg.Reconcile.RetryDelay)
	v.SetDefault("reconcile.subsection_delay", cfg.Reconcile.SubsectionDelay)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
