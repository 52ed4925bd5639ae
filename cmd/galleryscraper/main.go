package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"galleryscraper/internal/catalog"
	"galleryscraper/internal/config"
	"galleryscraper/internal/report"
	"galleryscraper/internal/runner"
	"galleryscraper/internal/store"
)

var (
	cfgFile  string
	verbose  bool
	rootDir  string
	maxSubs  int
	dryRun   bool
	fastMode bool

	reportPath string
	rangeSpec  string
	itemsSpec  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "galleryscraper",
		Short: "Automated gallery media and prompt scraper",
		Long: `galleryscraper walks a catalog of gallery subsections, detects which
ones are missing or under-populated, and scrapes each one by driving a
real browser: load the gallery, open every item's detail view, extract
the media URL and prompt, and persist the records as JSON and CSV.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", ".", "catalog root directory")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(rescrapeCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(updateCountsCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand: reconcile the catalog and work
// through every incomplete subsection.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every missing or under-populated subsection",
		RunE:  runScrape,
	}

	cmd.Flags().IntVarP(&maxSubs, "max", "m", 0, "maximum subsections to process (0 = unlimited)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the worklist without scraping")
	cmd.Flags().BoolVar(&fastMode, "fast", false, "use the shorter scroll budget")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	st := store.NewFileStore(cfg.Reconcile.PopulatedThreshold, logger)
	worklist, err := catalog.NewReconciler(st, logger).Reconcile(rootDir)
	if err != nil {
		return fmt.Errorf("reconcile catalog: %w", err)
	}
	if len(worklist) == 0 {
		fmt.Println("Nothing to do: every subsection is populated.")
		return nil
	}
	if maxSubs > 0 && len(worklist) > maxSubs {
		worklist = worklist[:maxSubs]
	}

	if dryRun {
		fmt.Printf("Worklist (%d subsections):\n", len(worklist))
		for i, e := range worklist {
			fmt.Printf("  %3d. %s\n", i+1, e.String())
		}
		return nil
	}

	return runWorklist(cfg, st, logger, worklist)
}

// rescrapeCmd creates the "rescrape" subcommand: re-process subsections
// named in a previously written low-count report.
func rescrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescrape",
		Short: "Rescrape subsections listed in a low-count report",
		RunE:  runRescrape,
	}

	cmd.Flags().StringVar(&reportPath, "report", report.DefaultFileName, "report file to read")
	cmd.Flags().StringVar(&rangeSpec, "range", "all", "report line selection, e.g. 1-3,5,7-9")
	cmd.Flags().StringVar(&itemsSpec, "items", "", "item position selection within each gallery, ascending, e.g. 1-10 (default: all items, reverse order)")
	cmd.Flags().BoolVar(&fastMode, "fast", false, "use the shorter scroll budget")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the selection without scraping")

	return cmd
}

func runRescrape(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	rep, err := report.Parse(reportPath)
	if err != nil {
		return fmt.Errorf("parse report %s: %w", reportPath, err)
	}
	if len(rep.Lines) == 0 {
		fmt.Println("Report contains no subsections.")
		return nil
	}

	selection, err := runner.ParseRange(rangeSpec, len(rep.Lines))
	if err != nil {
		return err
	}

	st := store.NewFileStore(cfg.Reconcile.PopulatedThreshold, logger)
	worklist, err := resolveReportEntries(rootDir, rep, selection, st, logger)
	if err != nil {
		return err
	}
	if len(worklist) == 0 {
		return fmt.Errorf("no report entries could be matched against the catalog under %s", rootDir)
	}

	if dryRun {
		fmt.Printf("Selected %d of %d report lines:\n", len(worklist), len(rep.Lines))
		for i, e := range worklist {
			fmt.Printf("  %3d. %s\n", i+1, e.String())
		}
		return nil
	}

	return runWorklist(cfg, st, logger, worklist)
}

// resolveReportEntries maps selected report lines back to catalog entries.
// Report category headers are uppercased on write, so matching is
// case-insensitive and whitespace-insensitive.
func resolveReportEntries(root string, rep *report.Report, selection []int, st *store.FileStore, logger *slog.Logger) ([]catalog.Entry, error) {
	all, err := catalog.NewReconciler(st, logger).Reconcile(root)
	if err != nil {
		return nil, fmt.Errorf("reconcile catalog: %w", err)
	}

	var entries []catalog.Entry
	for _, pos := range selection {
		line := rep.Lines[pos-1]
		found := false
		for _, e := range all {
			if looseEqual(e.Category, line.Category) && looseEqual(e.Subsection, line.Subsection) {
				entries = append(entries, e)
				found = true
				break
			}
		}
		if !found {
			logger.Warn("report entry not in worklist, skipping",
				"category", line.Category, "subsection", line.Subsection)
		}
	}
	return entries, nil
}

func looseEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), ""))
	}
	return norm(a) == norm(b)
}

// runWorklist executes entries through the runner with signal-driven
// cancellation, then writes updated counts back into the catalog.
func runWorklist(cfg *config.Config, st *store.FileStore, logger *slog.Logger, worklist []catalog.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scraper := runner.NewGalleryScraper(cfg, st, fastMode, itemsSpec, logger)
	summary := runner.NewRunner(cfg.Reconcile, scraper, logger).Run(ctx, worklist)

	if _, err := catalog.NewUpdater(st, logger).UpdateCounts(rootDir); err != nil {
		logger.Warn("failed to update catalog counts", "error", err)
	}

	fmt.Printf("\nDone in %s: %d attempted, %d succeeded, %d failed\n",
		summary.Elapsed.Round(time.Second), summary.Attempted, summary.Succeeded, len(summary.Failed))
	for _, e := range summary.Failed {
		fmt.Printf("  failed: %s\n", e.String())
	}
	if ctx.Err() != nil {
		fmt.Println("Interrupted; progress up to this point is saved.")
	}
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("galleryscraper %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Browser:\n")
			fmt.Printf("  Headless:            %v\n", cfg.Browser.Headless)
			fmt.Printf("  Window Size:         %s\n", cfg.Browser.WindowSize)
			fmt.Printf("  Nav Timeout:         %s\n", cfg.Browser.NavTimeout)
			fmt.Printf("  Block Images:        %v\n", cfg.Browser.BlockImages)
			fmt.Printf("\nScroll:\n")
			fmt.Printf("  Max Attempts:        %d (fast: %d)\n", cfg.Scroll.MaxAttempts, cfg.Scroll.FastMaxAttempts)
			fmt.Printf("  Stable Rounds:       %d\n", cfg.Scroll.StableRounds)
			fmt.Printf("  Settle Delay:        %s\n", cfg.Scroll.SettleDelay)
			fmt.Printf("\nInteract:\n")
			fmt.Printf("  Open Settle:         %s\n", cfg.Interact.OpenSettle)
			fmt.Printf("  Close Settle:        %s\n", cfg.Interact.CloseSettle)
			fmt.Printf("  Extract Retries:     %d\n", cfg.Interact.ExtractRetries)
			fmt.Printf("  Modal Timeout:       %s\n", cfg.Interact.ModalTimeout)
			fmt.Printf("\nReconcile:\n")
			fmt.Printf("  Populated Threshold: %d\n", cfg.Reconcile.PopulatedThreshold)
			fmt.Printf("  Max Retries:         %d\n", cfg.Reconcile.MaxRetries)
			fmt.Printf("  Retry Delay:         %s\n", cfg.Reconcile.RetryDelay)
			fmt.Printf("  Subsection Delay:    %s\n", cfg.Reconcile.SubsectionDelay)
			return nil
		},
	}
}

// setup loads and validates the config and builds the logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg.Logging), nil
}

// setupLogger creates a structured logger per the logging config. The
// --verbose flag forces debug level.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
