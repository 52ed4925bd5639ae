package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"galleryscraper/internal/store"
)

// Entry is one worklist item: a subsection whose persisted record set is
// missing or looks incomplete. The worklist is derived state and is never
// persisted; it is rebuilt from the catalog plus record files each run.
type Entry struct {
	Category   string
	Subsection string
	URL        string
	TargetDir  string
	Status     store.Status
	Count      int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s/%s (%s, %d records)", e.Category, e.Subsection, e.Status, e.Count)
}

// Reconciler compares the catalog against persisted record files and
// produces the worklist of subsections needing a scrape pass.
type Reconciler struct {
	store  *store.FileStore
	logger *slog.Logger
}

// NewReconciler creates a Reconciler backed by the given record store.
func NewReconciler(st *store.FileStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  st,
		logger: logger.With("component", "reconciler"),
	}
}

// Reconcile scans root for catalog indexes and returns worklist entries in
// catalog order. Two layouts are supported: a single index at the scan root,
// or one index inside each immediate child directory. The root layout is
// tried first.
func (r *Reconciler) Reconcile(root string) ([]Entry, error) {
	rootIndex := filepath.Join(root, IndexFileName)
	if _, err := os.Stat(rootIndex); err == nil {
		ix, err := LoadIndex(rootIndex)
		if err != nil {
			return nil, fmt.Errorf("load root index: %w", err)
		}
		category := ix.CategoryName(filepath.Base(root))
		r.logger.Info("found root category index",
			"category", category,
			"subsections", len(ix.Subsections()),
		)
		return r.collect(ix, category, root), nil
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root dir: %w", err)
	}

	var worklist []Entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		categoryDir := filepath.Join(root, d.Name())
		indexPath := filepath.Join(categoryDir, IndexFileName)
		if _, err := os.Stat(indexPath); err != nil {
			continue
		}

		ix, err := LoadIndex(indexPath)
		if err != nil {
			r.logger.Error("skipping unreadable index", "path", indexPath, "error", err)
			continue
		}

		category := ix.CategoryName(d.Name())
		r.logger.Info("checking category",
			"category", category,
			"subsections", len(ix.Subsections()),
		)
		worklist = append(worklist, r.collect(ix, category, categoryDir)...)
	}

	r.logger.Info("reconciliation complete", "worklist", len(worklist))
	return worklist, nil
}

// collect classifies every subsection of one index and keeps the incomplete
// ones, in index order.
func (r *Reconciler) collect(ix *Index, category, categoryDir string) []Entry {
	var entries []Entry
	for _, sub := range ix.Subsections() {
		if sub.Link == "" {
			r.logger.Warn("subsection has no link", "category", category, "subsection", sub.Name)
			continue
		}

		targetDir := filepath.Join(categoryDir, sub.Name)
		status, count := r.store.Classify(targetDir)
		if !status.NeedsScrape() {
			r.logger.Debug("subsection complete",
				"category", category, "subsection", sub.Name, "count", count)
			continue
		}

		entries = append(entries, Entry{
			Category:   category,
			Subsection: sub.Name,
			URL:        sub.Link,
			TargetDir:  targetDir,
			Status:     status,
			Count:      count,
		})
		r.logger.Info("subsection needs scraping",
			"category", category,
			"subsection", sub.Name,
			"status", status,
			"count", count,
		)
	}
	return entries
}
