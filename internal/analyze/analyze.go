// Package analyze inspects saved gallery markup and reports which item
// selectors would match, so discovery cascades can be tuned against a new
// gallery layout without driving a live browser.
package analyze

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// cssProbes are the candidate item selectors, the discovery cascade's own
// selectors first.
var cssProbes = []string{
	`a[href*='/job/']`,
	`figure[data-sentry-component='MediaFigure']`,
	`figure[class*='group']`,
	`figure`,
	`a img`,
	`[onclick] img`,
	`button img`,
	`img[src]`,
	`img[srcset]`,
	`video`,
	`[role='dialog']`,
	`[data-modal]`,
	`[style*='background-image']`,
}

// xpathProbes cover structural relationships CSS cannot express.
var xpathProbes = []string{
	`//video/ancestor::*[1]`,
	`//img/ancestor::a[1]`,
	`//figure//a[@href]`,
	`//a[contains(@href, '/job/')]`,
}

// Probe is one selector trial.
type Probe struct {
	Kind  string // "css" or "xpath"
	Expr  string
	Count int
}

// Report is the analysis of one page's markup.
type Report struct {
	Title      string
	Probes     []Probe
	TopClasses []ClassCount
}

// ClassCount is one class token and how many elements carry it.
type ClassCount struct {
	Class string
	Count int
}

// Best returns the highest-count probe, preferring earlier (more specific)
// probes on ties, or nil when nothing matched.
func (r *Report) Best() *Probe {
	var best *Probe
	for i := range r.Probes {
		p := &r.Probes[i]
		if p.Count > 0 && (best == nil || p.Count > best.Count) {
			best = p
		}
	}
	return best
}

// Analyzer probes parsed markup with the candidate selector sets.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logger.With("component", "analyzer")}
}

// Analyze parses the markup once and runs every probe against it.
func (a *Analyzer) Analyze(r io.Reader) (*Report, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	report := &Report{Title: strings.TrimSpace(doc.Find("title").First().Text())}

	for _, expr := range cssProbes {
		count := doc.Find(expr).Length()
		report.Probes = append(report.Probes, Probe{Kind: "css", Expr: expr, Count: count})
	}

	for _, expr := range xpathProbes {
		nodes, err := htmlquery.QueryAll(root, expr)
		if err != nil {
			a.logger.Warn("xpath probe failed", "expr", expr, "error", err)
			continue
		}
		report.Probes = append(report.Probes, Probe{Kind: "xpath", Expr: expr, Count: len(nodes)})
	}

	report.TopClasses = topClasses(doc, 10)

	if best := report.Best(); best != nil {
		a.logger.Info("analysis complete",
			"title", report.Title,
			"best_probe", best.Expr,
			"matches", best.Count,
		)
	} else {
		a.logger.Warn("no probe matched", "title", report.Title)
	}
	return report, nil
}

// topClasses counts class tokens across all elements and returns the n most
// frequent, alphabetical within equal counts.
func topClasses(doc *goquery.Document, n int) []ClassCount {
	counts := make(map[string]int)
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		for _, token := range strings.Fields(class) {
			counts[token]++
		}
	})

	out := make([]ClassCount, 0, len(counts))
	for class, count := range counts {
		out = append(out, ClassCount{Class: class, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Class < out[j].Class
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Format renders the report for terminal output.
func Format(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s\n\n", r.Title)

	fmt.Fprintln(&b, "Selector probes:")
	for _, p := range r.Probes {
		marker := " "
		if best := r.Best(); best != nil && best.Expr == p.Expr && best.Kind == p.Kind {
			marker = "*"
		}
		fmt.Fprintf(&b, "  %s %-6s %-55s %d\n", marker, p.Kind, p.Expr, p.Count)
	}

	if len(r.TopClasses) > 0 {
		fmt.Fprintln(&b, "\nMost frequent class tokens:")
		for _, c := range r.TopClasses {
			fmt.Fprintf(&b, "  %-40s %d\n", c.Class, c.Count)
		}
	}
	return b.String()
}
