package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"galleryscraper/internal/analyze"
	"galleryscraper/internal/audit"
	"galleryscraper/internal/browser"
	"galleryscraper/internal/catalog"
	"galleryscraper/internal/report"
	"galleryscraper/internal/store"
)

var (
	reportOut      string
	reportThresh   int
	cleanFieldsCSV string
	analyzeOut     string
)

// reportCmd creates the "report" subcommand: write the low-count report
// from the catalog's recorded item counts.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the low item count report",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup()
			if err != nil {
				return err
			}

			rep, err := report.NewBuilder(logger).Build(rootDir, reportThresh)
			if err != nil {
				return err
			}
			if err := report.Write(reportOut, rep); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			fmt.Printf("Report written to %s: %d subsections at or below %d items\n",
				reportOut, len(rep.Lines), reportThresh)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportOut, "output", "o", report.DefaultFileName, "report output path")
	cmd.Flags().IntVarP(&reportThresh, "threshold", "t", 1, "item count at or below which a subsection is reported")

	return cmd
}

// updateCountsCmd creates the "update-counts" subcommand: write current
// record counts back into every catalog index.
func updateCountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-counts",
		Short: "Write record counts back into catalog indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			st := store.NewFileStore(cfg.Reconcile.PopulatedThreshold, logger)
			updater := catalog.NewUpdater(st, logger)

			if cleanFieldsCSV != "" {
				fields := splitCSVFlag(cleanFieldsCSV)
				removed, err := updater.CleanFields(rootDir, fields...)
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d stale fields\n", removed)
			}

			summary, err := updater.UpdateCounts(rootDir)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d of %d indexes (%d entries, %d failed)\n",
				summary.IndexesUpdated, summary.IndexesFound,
				summary.EntriesUpdated, summary.IndexesFailed)
			return nil
		},
	}

	cmd.Flags().StringVar(&cleanFieldsCSV, "clean-fields", "", "comma-separated stale fields to strip from index entries")

	return cmd
}

// auditCmd creates the "audit" subcommand: scan record files for intra-file
// duplicate media URLs.
func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check record files for duplicate media URLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup()
			if err != nil {
				return err
			}

			summary, err := audit.NewAuditor(logger).Audit(rootDir)
			if err != nil {
				return err
			}

			fmt.Printf("Scanned %d record files\n", summary.FilesScanned)
			for _, f := range summary.Findings {
				fmt.Printf("  duplicate in %s: %s (%d occurrences)\n", f.File, f.MediaURL, f.Occurrences)
			}
			for _, p := range summary.Unreadable {
				fmt.Printf("  unreadable: %s\n", p)
			}
			if summary.Clean() {
				fmt.Println("No duplicates found.")
				return nil
			}
			return fmt.Errorf("audit found %d duplicate URLs and %d unreadable files",
				len(summary.Findings), len(summary.Unreadable))
		},
	}
}

// analyzeCmd creates the "analyze" subcommand: probe a page's markup with
// the candidate item selectors. The argument is a URL or a saved HTML file.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url-or-file]",
		Short: "Probe gallery markup with the item discovery selectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			target := args[0]
			var markup string
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				session, err := browser.NewSession(cfg.Browser, logger)
				if err != nil {
					return fmt.Errorf("start browser: %w", err)
				}
				defer session.Close()
				if err := session.Navigate(context.Background(), target); err != nil {
					return err
				}
				markup, err = session.HTML()
				if err != nil {
					return fmt.Errorf("read page markup: %w", err)
				}
			} else {
				data, err := os.ReadFile(target)
				if err != nil {
					return fmt.Errorf("read %s: %w", target, err)
				}
				markup = string(data)
			}

			rep, err := analyze.NewAnalyzer(logger).Analyze(strings.NewReader(markup))
			if err != nil {
				return err
			}

			out := analyze.Format(rep)
			if analyzeOut != "" {
				if err := os.WriteFile(analyzeOut, []byte(out), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", analyzeOut, err)
				}
				fmt.Printf("Analysis written to %s\n", analyzeOut)
				return nil
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&analyzeOut, "output", "o", "", "write the analysis to a file instead of stdout")

	return cmd
}

func splitCSVFlag(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
