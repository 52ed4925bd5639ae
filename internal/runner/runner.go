// Package runner drives the worklist: one subsection at a time through the
// scraper, with a bounded retry budget per subsection and pacing delays
// between them.
package runner

import (
	"context"
	"log/slog"
	"time"

	"galleryscraper/internal/catalog"
	"galleryscraper/internal/config"
)

// Scraper performs one full scrape pass for a single subsection and
// returns the number of records persisted.
type Scraper interface {
	ScrapeSubsection(ctx context.Context, entry catalog.Entry) (int, error)
}

// Summary totals one worklist run.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    []catalog.Entry
	Elapsed   time.Duration
}

// Runner executes worklist entries sequentially. A subsection failure
// never aborts the run; the entry is retried up to the budget and then
// recorded as failed.
type Runner struct {
	cfg     config.ReconcileConfig
	scraper Scraper
	logger  *slog.Logger
	sleep   func(time.Duration)
}

// NewRunner creates a Runner.
func NewRunner(cfg config.ReconcileConfig, scraper Scraper, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		scraper: scraper,
		logger:  logger.With("component", "runner"),
		sleep:   time.Sleep,
	}
}

// Run processes entries in order until done or the context is cancelled.
// Cancellation takes effect between subsections and between retries.
func (r *Runner) Run(ctx context.Context, entries []catalog.Entry) Summary {
	start := time.Now()
	summary := Summary{}

	for i, entry := range entries {
		if ctx.Err() != nil {
			r.logger.Info("run interrupted",
				"processed", i, "remaining", len(entries)-i)
			break
		}

		r.logger.Info("scraping subsection",
			"position", i+1,
			"total", len(entries),
			"entry", entry.String(),
		)
		summary.Attempted++

		if r.scrapeWithRetry(ctx, entry) {
			summary.Succeeded++
		} else {
			summary.Failed = append(summary.Failed, entry)
		}

		if i < len(entries)-1 && ctx.Err() == nil {
			r.sleep(r.cfg.SubsectionDelay)
		}
	}

	summary.Elapsed = time.Since(start)
	r.logger.Info("run complete",
		"attempted", summary.Attempted,
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failed),
		"elapsed", summary.Elapsed,
	)
	return summary
}

func (r *Runner) scrapeWithRetry(ctx context.Context, entry catalog.Entry) bool {
	attempts := r.cfg.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}

		count, err := r.scraper.ScrapeSubsection(ctx, entry)
		if err == nil {
			r.logger.Info("subsection scraped",
				"subsection", entry.Subsection,
				"records", count,
				"attempt", attempt,
			)
			return true
		}

		r.logger.Error("scrape attempt failed",
			"subsection", entry.Subsection,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
		if attempt < attempts {
			r.sleep(r.cfg.RetryDelay)
		}
	}
	return false
}
