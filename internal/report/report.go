// Package report builds, writes, and parses the low-count report: a plain
// text listing of subsections whose item counts suggest a failed or partial
// scrape. The written format is also the rescrape command's input, so Write
// and Parse must stay round-trip compatible.
package report

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"galleryscraper/internal/catalog"
)

// DefaultFileName is where the report is written unless overridden.
const DefaultFileName = "low_count_report.txt"

var bulletRe = regexp.MustCompile(`^\s*•\s*(.+?)\s*\(Count:\s*(\d+)\)\s*$`)

// Line is one reported subsection.
type Line struct {
	Category   string
	Subsection string
	Count      int
}

// Report groups low-count subsections by category.
type Report struct {
	Threshold int
	Lines     []Line
}

// Categories returns the distinct category names in first-seen order.
func (r *Report) Categories() []string {
	seen := make(map[string]struct{})
	var cats []string
	for _, l := range r.Lines {
		if _, ok := seen[l.Category]; ok {
			continue
		}
		seen[l.Category] = struct{}{}
		cats = append(cats, l.Category)
	}
	return cats
}

// Builder assembles a Report from the catalog indexes under a root.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger.With("component", "report_builder")}
}

// Build walks root for category indexes and collects every subsection whose
// recorded item_count is at or below threshold. Subsections without a
// recorded count are skipped; run the count update first.
func (b *Builder) Build(root string, threshold int) (*Report, error) {
	var indexes []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == catalog.IndexFileName {
			indexes = append(indexes, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(indexes)

	report := &Report{Threshold: threshold}
	for _, path := range indexes {
		ix, err := catalog.LoadIndex(path)
		if err != nil {
			b.logger.Error("skipping unreadable index", "path", path, "error", err)
			continue
		}
		category := ix.CategoryName(filepath.Base(filepath.Dir(path)))
		for _, sub := range ix.Subsections() {
			if !sub.HasCount {
				b.logger.Debug("subsection has no recorded count",
					"category", category, "subsection", sub.Name)
				continue
			}
			if sub.ItemCount <= threshold {
				report.Lines = append(report.Lines, Line{
					Category:   category,
					Subsection: sub.Name,
					Count:      sub.ItemCount,
				})
			}
		}
	}

	b.logger.Info("report built",
		"indexes", len(indexes),
		"low_count_subsections", len(report.Lines),
	)
	return report, nil
}

// Write renders the report to path in its canonical text form.
func Write(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	title := "LOW ITEM COUNT ANALYSIS"
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Categories and subsections with %d or fewer items:\n", r.Threshold)
	fmt.Fprintln(w)

	for _, cat := range r.Categories() {
		fmt.Fprintf(w, "%s:\n", strings.ToUpper(cat))
		for _, l := range r.Lines {
			if l.Category != cat {
				continue
			}
			fmt.Fprintf(w, "  • %s (Count: %d)\n", l.Subsection, l.Count)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "SUMMARY:")
	fmt.Fprintf(w, "Total categories with low counts: %d\n", len(r.Categories()))
	fmt.Fprintf(w, "Total subsections with low counts: %d\n", len(r.Lines))

	return w.Flush()
}

// Parse reads a previously written report back into structured lines. The
// category is taken from the most recent header line ending in a colon;
// bullet lines outside any category are ignored.
func Parse(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	report := &Report{Threshold: -1}
	current := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if m := bulletRe.FindStringSubmatch(line); m != nil {
			if current == "" {
				continue
			}
			count, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			report.Lines = append(report.Lines, Line{
				Category:   current,
				Subsection: m[1],
				Count:      count,
			})
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "SUMMARY:" {
			current = ""
			continue
		}
		if strings.HasSuffix(trimmed, ":") && trimmed == line {
			current = strings.TrimSuffix(trimmed, ":")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return report, nil
}
