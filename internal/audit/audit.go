// Package audit scans persisted record files for integrity problems.
// Duplicates are detected per file only; the same media URL appearing in
// two different subsections is legitimate cross-listing, not an error.
package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"galleryscraper/internal/store"
)

// Finding is one duplicated media URL inside one record file.
type Finding struct {
	File        string
	MediaURL    string
	Occurrences int
}

// Summary totals one audit pass.
type Summary struct {
	FilesScanned int
	Findings     []Finding
	Unreadable   []string
}

// Clean reports whether the audit found no problems.
func (s Summary) Clean() bool {
	return len(s.Findings) == 0 && len(s.Unreadable) == 0
}

// Auditor walks a record tree and checks every records file.
type Auditor struct {
	logger *slog.Logger
}

// NewAuditor creates an Auditor.
func NewAuditor(logger *slog.Logger) *Auditor {
	return &Auditor{logger: logger.With("component", "auditor")}
}

// Audit scans every records.json and records.csv under root.
func (a *Auditor) Audit(root string) (Summary, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == store.JSONFileName || d.Name() == store.CSVFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(paths)

	summary := Summary{FilesScanned: len(paths)}
	for _, path := range paths {
		urls, err := a.mediaURLs(path)
		if err != nil {
			a.logger.Error("unreadable record file", "path", path, "error", err)
			summary.Unreadable = append(summary.Unreadable, path)
			continue
		}
		summary.Findings = append(summary.Findings, duplicates(path, urls)...)
	}

	a.logger.Info("audit complete",
		"files", summary.FilesScanned,
		"duplicates", len(summary.Findings),
		"unreadable", len(summary.Unreadable),
	)
	return summary, nil
}

func (a *Auditor) mediaURLs(path string) ([]string, error) {
	if filepath.Ext(path) == ".csv" {
		return csvMediaURLs(path)
	}

	records, err := store.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.MediaURL)
	}
	return urls, nil
}

func csvMediaURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := -1
	for i, h := range header {
		if h == "media_url" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no media_url column in %s", path)
	}

	var urls []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col < len(row) {
			urls = append(urls, row[col])
		}
	}
	return urls, nil
}

// duplicates reports each URL seen more than once, in first-seen order.
// Empty and placeholder URLs are ignored: they carry no asset identity, so
// repeats among them are valid state, not an integrity problem.
func duplicates(path string, urls []string) []Finding {
	counts := make(map[string]int)
	var order []string
	for _, u := range urls {
		if u == "" || strings.HasPrefix(u, store.PlaceholderPrefix) {
			continue
		}
		if counts[u] == 0 {
			order = append(order, u)
		}
		counts[u]++
	}

	var findings []Finding
	for _, u := range order {
		if counts[u] > 1 {
			findings = append(findings, Finding{File: path, MediaURL: u, Occurrences: counts[u]})
		}
	}
	return findings
}
