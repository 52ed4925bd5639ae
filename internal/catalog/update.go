package catalog

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"galleryscraper/internal/store"
)

// UpdateSummary reports the outcome of a catalog count update pass.
type UpdateSummary struct {
	IndexesFound   int
	IndexesUpdated int
	IndexesFailed  int
	EntriesUpdated int
}

// Updater writes per-subsection record counts back into catalog indexes.
// Counts are the only field it touches; everything else round-trips as-is.
type Updater struct {
	store  *store.FileStore
	logger *slog.Logger
}

// NewUpdater creates an Updater backed by the given record store.
func NewUpdater(st *store.FileStore, logger *slog.Logger) *Updater {
	return &Updater{
		store:  st,
		logger: logger.With("component", "catalog_updater"),
	}
}

// UpdateCounts walks root for catalog indexes and rewrites each with the
// current record count of every subsection. Subsections with no record
// file are recorded as zero.
func (u *Updater) UpdateCounts(root string) (UpdateSummary, error) {
	var summary UpdateSummary

	indexes, err := findIndexes(root)
	if err != nil {
		return summary, err
	}
	summary.IndexesFound = len(indexes)
	u.logger.Info("found catalog indexes", "count", len(indexes))

	for _, indexPath := range indexes {
		ix, err := LoadIndex(indexPath)
		if err != nil {
			u.logger.Error("skipping unreadable index", "path", indexPath, "error", err)
			summary.IndexesFailed++
			continue
		}

		categoryDir := filepath.Dir(indexPath)
		updated := 0
		for _, sub := range ix.Subsections() {
			dir := resolveSubsectionDir(categoryDir, sub.Name)
			_, count := u.store.Classify(dir)
			if ix.SetItemCount(sub.Name, count) {
				updated++
			}
		}

		if err := ix.Save(); err != nil {
			u.logger.Error("failed to save index", "path", indexPath, "error", err)
			summary.IndexesFailed++
			continue
		}

		u.logger.Info("index updated", "path", indexPath, "entries", updated)
		summary.IndexesUpdated++
		summary.EntriesUpdated += updated
	}

	return summary, nil
}

// CleanFields strips the named stale fields from every subsection entry of
// every index under root. Returns the total number of fields removed.
func (u *Updater) CleanFields(root string, fields ...string) (int, error) {
	indexes, err := findIndexes(root)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, indexPath := range indexes {
		ix, err := LoadIndex(indexPath)
		if err != nil {
			u.logger.Error("skipping unreadable index", "path", indexPath, "error", err)
			continue
		}
		removed := ix.RemoveFields(fields...)
		if removed == 0 {
			continue
		}
		if err := ix.Save(); err != nil {
			u.logger.Error("failed to save index", "path", indexPath, "error", err)
			continue
		}
		u.logger.Info("index cleaned", "path", indexPath, "fields_removed", removed)
		total += removed
	}
	return total, nil
}

// findIndexes returns every catalog index file under root, in walk order.
func findIndexes(root string) ([]string, error) {
	var indexes []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == IndexFileName {
			indexes = append(indexes, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return indexes, nil
}

// resolveSubsectionDir maps a subsection name to its on-disk directory,
// tolerating whitespace differences between catalog names and folder names.
func resolveSubsectionDir(categoryDir, name string) string {
	exact := filepath.Join(categoryDir, name)
	if _, err := os.Stat(exact); err == nil {
		return exact
	}

	entries, err := os.ReadDir(categoryDir)
	if err != nil {
		return exact
	}
	normalized := normalizeName(name)
	for _, e := range entries {
		if e.IsDir() && normalizeName(e.Name()) == normalized {
			return filepath.Join(categoryDir, e.Name())
		}
	}
	return exact
}
