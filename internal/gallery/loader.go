// Package gallery implements the scrape core for one gallery page: driving
// lazy-load scrolling to completion, enumerating the clickable media items,
// and running the per-item open/extract/close interaction cycle.
package gallery

import (
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"galleryscraper/internal/config"
)

// LoadStats summarizes one content-loading pass. Diagnostic only.
type LoadStats struct {
	Attempts      int
	InitialHeight int
	FinalHeight   int
}

// Loader triggers all lazy-loaded gallery content to materialize before
// enumeration. Best effort: it always returns, even when the page never
// stabilizes, and leaves the page scrolled to its top.
type Loader struct {
	cfg    config.ScrollConfig
	fast   bool
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewLoader creates a Loader. Fast mode uses the lower scroll-attempt cap.
func NewLoader(cfg config.ScrollConfig, fast bool, logger *slog.Logger) *Loader {
	return &Loader{
		cfg:    cfg,
		fast:   fast,
		logger: logger.With("component", "content_loader"),
		sleep:  time.Sleep,
	}
}

// LoadAll scrolls to the document bottom until the layout extent stops
// growing for StableRounds consecutive attempts or the attempt cap is hit,
// runs a short settle phase for trailing asynchronous loads, then scrolls
// back to the top.
func (l *Loader) LoadAll(page *rod.Page) LoadStats {
	stats := LoadStats{}

	maxAttempts := l.cfg.MaxAttempts
	if l.fast {
		maxAttempts = l.cfg.FastMaxAttempts
	}

	lastHeight := l.scrollHeight(page)
	stats.InitialHeight = lastHeight
	sameRounds := 0

	for stats.Attempts < maxAttempts && sameRounds < l.cfg.StableRounds {
		l.scrollToBottom(page)
		l.sleep(l.cfg.SettleDelay)

		height := l.scrollHeight(page)
		l.logger.Debug("scroll attempt",
			"attempt", stats.Attempts+1,
			"last_height", lastHeight,
			"height", height,
		)

		if height == lastHeight {
			sameRounds++
		} else {
			sameRounds = 0
		}
		lastHeight = height
		stats.Attempts++
	}

	// Settle phase: small perturbations at the bottom catch loads that
	// only trigger on scroll events, not on position.
	for i := 0; i < l.cfg.SettleCycles; i++ {
		l.eval(page, `() => { window.scrollBy(0, 100); setTimeout(() => window.scrollTo(0, document.body.scrollHeight), 500) }`)
		l.sleep(l.cfg.SettleDelay / 2)
	}

	stats.FinalHeight = l.scrollHeight(page)

	l.eval(page, `() => window.scrollTo(0, 0)`)
	l.sleep(time.Second)

	l.logger.Info("content loading finished",
		"attempts", stats.Attempts,
		"initial_height", stats.InitialHeight,
		"final_height", stats.FinalHeight,
	)
	return stats
}

func (l *Loader) scrollToBottom(page *rod.Page) {
	l.eval(page, `() => window.scrollTo(0, document.body.scrollHeight)`)
}

func (l *Loader) scrollHeight(page *rod.Page) int {
	result, err := page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		l.logger.Warn("failed to read scroll height", "error", err)
		return 0
	}
	return result.Value.Int()
}

func (l *Loader) eval(page *rod.Page, js string) {
	if _, err := page.Eval(js); err != nil {
		l.logger.Warn("scroll script failed", "error", err)
	}
}
