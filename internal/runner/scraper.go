package runner

import (
	"context"
	"fmt"
	"log/slog"

	"galleryscraper/internal/browser"
	"galleryscraper/internal/catalog"
	"galleryscraper/internal/config"
	"galleryscraper/internal/gallery"
	"galleryscraper/internal/store"
)

// GalleryScraper is the production Scraper: it launches a fresh browser
// session per subsection, drives the gallery page to full load, runs the
// interaction cycle over the selected items, and persists the records.
type GalleryScraper struct {
	cfg       *config.Config
	store     *store.FileStore
	fast      bool
	itemRange string
	logger    *slog.Logger
}

// NewGalleryScraper creates a GalleryScraper. Fast mode shortens the
// lazy-load scroll budget. A non-empty itemRange restricts each subsection
// to those 1-based item positions, processed ascending; empty means every
// item in reverse enumeration order.
func NewGalleryScraper(cfg *config.Config, st *store.FileStore, fast bool, itemRange string, logger *slog.Logger) *GalleryScraper {
	return &GalleryScraper{
		cfg:       cfg,
		store:     st,
		fast:      fast,
		itemRange: itemRange,
		logger:    logger.With("component", "gallery_scraper"),
	}
}

// ScrapeSubsection implements Scraper. The session is closed on every
// return path; a crashed browser never leaks into the next subsection.
func (g *GalleryScraper) ScrapeSubsection(ctx context.Context, entry catalog.Entry) (int, error) {
	session, err := browser.NewSession(g.cfg.Browser, g.logger)
	if err != nil {
		return 0, fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, entry.URL); err != nil {
		return 0, err
	}

	page := session.Page()
	loader := gallery.NewLoader(g.cfg.Scroll, g.fast, g.logger)
	loader.LoadAll(page)

	enum := gallery.NewEnumerator(gallery.DefaultStrategies(), loader, g.cfg.Scroll.RescanDelay, g.logger).Enumerate(page)
	if len(enum.Items) == 0 {
		// Zero items is a legitimate outcome for an empty gallery, but an
		// empty record set classifies the subsection for another pass, so
		// nothing is written.
		g.logger.Warn("no items enumerated", "subsection", entry.Subsection, "url", entry.URL)
		return 0, nil
	}

	extractor := gallery.NewExtractor(g.cfg.Interact.ModalTimeout, g.cfg.Extract.MinPromptLen, g.logger)
	drv := gallery.NewRodDriver(page, enum.Items, extractor, g.logger)
	cycle := gallery.NewCycle(g.cfg.Interact, g.logger)

	order, err := ItemOrder(g.itemRange, drv.Count())
	if err != nil {
		return 0, fmt.Errorf("item selection against %d items: %w", drv.Count(), err)
	}

	result := cycle.Run(ctx, drv, order)
	if len(result.Records) == 0 {
		return 0, fmt.Errorf("no records extracted from %d items", len(enum.Items))
	}

	if err := g.store.Save(entry.TargetDir, result.Records); err != nil {
		return 0, fmt.Errorf("persist records: %w", err)
	}
	return len(result.Records), nil
}
