package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"galleryscraper/internal/config"
	"galleryscraper/internal/store"
)

// ItemDriver is the browser-facing surface the interaction cycle needs for
// one enumerated item set. Indices are 1-based enumeration positions.
type ItemDriver interface {
	// Count is the number of enumerated items.
	Count() int

	// ScrollIntoView brings item i into the viewport.
	ScrollIntoView(i int) error

	// TileMediaURL returns a media URL visible directly on the item tile,
	// or "" when the tile exposes none.
	TileMediaURL(i int) string

	// SourceID returns a stable identifier recovered from the item's link
	// or data attributes, or "".
	SourceID(i int) string

	// Open clicks item i to open its detail view, trying each click
	// mechanism in turn. Returns ErrNoClickTarget or ErrClickExhausted
	// when the item cannot be opened.
	Open(i int) error

	// Reopen re-clicks item i after a close, used by the uniqueness retry.
	Reopen(i int) error

	// Extract reads the open detail view.
	Extract() Extraction

	// Close dismisses the detail view, trying each close mechanism in
	// turn, and reports whether any succeeded.
	Close() bool
}

// Result is the outcome of one interaction cycle over a subsection.
type Result struct {
	Records []store.MediaRecord
	Skipped int
	Elapsed time.Duration
}

// Cycle runs the per-item state machine: open the detail view, extract
// with retry-for-uniqueness, synthesize a record, close, move on. Every
// item yields exactly one record or an explicitly logged skip; nothing is
// dropped silently.
type Cycle struct {
	cfg    config.InteractConfig
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewCycle creates a Cycle.
func NewCycle(cfg config.InteractConfig, logger *slog.Logger) *Cycle {
	return &Cycle{
		cfg:    cfg,
		logger: logger.With("component", "interaction_cycle"),
		sleep:  time.Sleep,
	}
}

// ReverseOrder returns n..1. The exhaustive scraper processes bottom to
// top, which reduces interference from re-triggered lazy loading as items
// are scrolled into view.
func ReverseOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = n - i
	}
	return order
}

// Run processes items in the given order of 1-based positions. Items are
// strictly sequential: each detail view is closed before the next opens.
// Cancellation takes effect between items; the in-flight item's close step
// still runs.
func (c *Cycle) Run(ctx context.Context, drv ItemDriver, order []int) Result {
	start := time.Now()
	result := Result{}
	seen := make(map[string]struct{})

	for pos, i := range order {
		if ctx.Err() != nil {
			c.logger.Info("cycle interrupted", "processed", pos, "remaining", len(order)-pos)
			break
		}

		c.logger.Info("processing item", "position", pos+1, "total", len(order), "index", i)
		itemStart := time.Now()

		record, ok := c.processItem(drv, i, seen)
		if !ok {
			result.Skipped++
			continue
		}

		if record.MediaURL != "" && !record.IsPlaceholder() {
			seen[record.MediaURL] = struct{}{}
		}
		result.Records = append(result.Records, record)

		c.logger.Debug("item done", "index", i, "elapsed", time.Since(itemStart))
	}

	result.Elapsed = time.Since(start)
	c.logger.Info("cycle complete",
		"records", len(result.Records),
		"skipped", result.Skipped,
		"elapsed", result.Elapsed,
	)
	return result
}

// processItem runs one item through the state machine. The boolean is
// false only for an explicit skip (no clickable target, click exhausted).
func (c *Cycle) processItem(drv ItemDriver, i int, seen map[string]struct{}) (store.MediaRecord, bool) {
	if err := drv.ScrollIntoView(i); err != nil {
		c.logger.Debug("scroll into view failed", "index", i, "error", err)
	}

	tileURL := drv.TileMediaURL(i)
	sourceID := drv.SourceID(i)

	if err := drv.Open(i); err != nil {
		c.logger.Warn("item skipped", "index", i, "reason", err)
		return store.MediaRecord{}, false
	}
	c.sleep(c.cfg.OpenSettle)

	var ext Extraction
	if ValidMediaURL(tileURL) {
		// The tile already exposes the real URL; the detail view is only
		// needed for the prompt, so no uniqueness retry applies.
		ext = drv.Extract()
		ext.MediaURL = tileURL
	} else {
		ext = c.extractUnique(drv, i, seen)
	}

	record := c.synthesize(ext, tileURL, sourceID, i)

	if !drv.Close() {
		c.logger.Warn("could not close detail view", "index", i)
	}
	c.sleep(c.cfg.CloseSettle)

	return record, true
}

// extractUnique retries extraction when the detail view serves a URL that
// was already collected, which indicates stale modal content from a rapid
// open/close cycle. Bounded at cfg.ExtractRetries attempts total; the last
// attempt's data wins either way.
func (c *Cycle) extractUnique(drv ItemDriver, i int, seen map[string]struct{}) Extraction {
	var ext Extraction
	for attempt := 1; attempt <= c.cfg.ExtractRetries; attempt++ {
		ext = drv.Extract()

		if ext.MediaURL == "" {
			c.logger.Warn("no media URL extracted", "index", i, "attempt", attempt)
			if attempt < c.cfg.ExtractRetries {
				c.sleep(c.cfg.CloseSettle)
			}
			continue
		}

		if _, dup := seen[ext.MediaURL]; !dup {
			if attempt > 1 {
				c.logger.Info("unique media URL after retry", "index", i, "attempt", attempt)
			}
			return ext
		}

		c.logger.Warn("duplicate media URL, reopening detail view", "index", i, "attempt", attempt)
		if attempt == c.cfg.ExtractRetries {
			break
		}
		drv.Close()
		c.sleep(c.cfg.CloseSettle)
		if err := drv.Reopen(i); err != nil {
			c.logger.Warn("reopen failed, keeping last extraction", "index", i, "error", err)
			break
		}
		c.sleep(c.cfg.OpenSettle)
	}
	return ext
}

// synthesize always produces a record: extracted URL first, the tile's own
// URL as fallback source, then a placeholder token built from the
// recovered identifier or the positional index.
func (c *Cycle) synthesize(ext Extraction, tileURL, sourceID string, i int) store.MediaRecord {
	url := ext.MediaURL
	if url == "" {
		url = tileURL
	}
	if url == "" {
		if sourceID != "" {
			url = store.PlaceholderPrefix + sourceID
		} else {
			url = fmt.Sprintf("%s%d", store.PlaceholderPrefix, i)
		}
		c.logger.Info("using placeholder URL", "index", i, "url", url)
	}

	prompt := ext.Prompt
	if prompt == "" {
		prompt = store.NoPromptSentinel
	}

	return store.MediaRecord{
		MediaURL:    url,
		Prompt:      prompt,
		SourceIndex: i,
		SourceID:    sourceID,
	}
}
