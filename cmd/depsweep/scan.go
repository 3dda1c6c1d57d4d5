package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"depsweep/internal/catalog"
	"depsweep/internal/config"
	"depsweep/internal/crawler"
	"depsweep/internal/extractor"
	"depsweep/internal/report"
	"depsweep/internal/scan"
	"depsweep/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	format           string
	output           string
	workers          int
	index            string
	mavenRepo        string
	metricsFile      string
	failOnUnresolved bool
	noTests          bool
}

func newScanCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a Maven or Gradle project for unused dependencies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			applyScanFlags(cmd, cfg, &f, args)
			return runScan(cmd.Context(), cfg, f.output, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: table, csv or json")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of modules scanned concurrently (default: number of CPUs)")
	cmd.Flags().StringVar(&f.index, "index", "", "JSON symbol index consulted before the Maven repository")
	cmd.Flags().StringVar(&f.mavenRepo, "maven-repo", "", "Local Maven repository (default: ~/.m2/repository)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write scan metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&f.failOnUnresolved, "fail-on-unresolved", false, "Exit non-zero when a dependency could not be resolved")
	cmd.Flags().BoolVar(&f.noTests, "no-tests", false, "Ignore test source sets")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Resolver.Database = dbPath
	}
	return cfg, nil
}

// applyScanFlags lets explicitly set flags win over the configuration file.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config, f *scanFlags, args []string) {
	if len(args) > 0 {
		cfg.Project.Root = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = f.format
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if flags.Changed("index") {
		cfg.Resolver.Index = f.index
	}
	if flags.Changed("maven-repo") {
		cfg.Resolver.MavenRepository = f.mavenRepo
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = f.metricsFile
	}
	if flags.Changed("fail-on-unresolved") {
		cfg.Scan.FailOnUnresolved = f.failOnUnresolved
	}
	if flags.Changed("no-tests") {
		cfg.Scan.IncludeTests = !f.noTests
	}
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildResolver chains the symbol index (when configured) and the Maven repository behind the
// SQLite symbol cache.
func buildResolver(cfg *config.Config, store *storage.SQLiteStore, logger *slog.Logger) (catalog.Resolver, error) {
	var resolvers []catalog.Resolver
	if cfg.Resolver.Index != "" {
		idx, err := catalog.LoadIndex(cfg.Resolver.Index)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, idx)
	}
	repo := cfg.Resolver.MavenRepository
	if repo == "" {
		repo = catalog.DefaultMavenRepository()
	}
	resolvers = append(resolvers, catalog.NewMavenRepository(repo))

	var r catalog.Resolver = catalog.NewChain(resolvers...)
	if store != nil && !cfg.Resolver.DisableCache {
		r = catalog.NewCached(store, r, logger)
	}
	return r, nil
}

func runScan(ctx context.Context, cfg *config.Config, output string, stdout, stderr io.Writer) error {
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger := newLogger(stderr)

	store, err := storage.NewSQLiteStore(cfg.Resolver.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	resolver, err := buildResolver(cfg, store, logger)
	if err != nil {
		return err
	}

	registry := extractor.DefaultRegistry()
	cr := crawler.NewCrawler(registry)
	cr.IncludeTests = cfg.Scan.IncludeTests

	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return err
	}
	logger.Info("discovering modules", "root", root)
	project, skipped, err := cr.Discover(root)
	if err != nil {
		return err
	}
	for _, w := range skipped {
		logger.Warn("skipping module with broken manifest", "path", w.Path, "error", w.Message)
	}
	logger.Info("scanning project", "modules", len(project.Modules), "workers", cfg.Scan.Workers, "resolver", resolver.Name())

	reg := prometheus.NewRegistry()
	scanner := scan.NewScanner(resolver, registry, scan.Options{
		Workers: cfg.Scan.Workers,
		Logger:  logger,
		Metrics: scan.NewMetrics(reg),
	})

	started := time.Now()
	r, scanErr := scanner.Scan(ctx, project)
	elapsed := time.Since(started)
	r.Warnings = append(skipped, r.Warnings...)

	out := stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := report.Write(out, r, format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if format != report.FormatJSON {
		if err := report.WriteWarnings(stderr, r.Warnings); err != nil {
			return err
		}
	}

	if cfg.Output.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.Output.MetricsFile, reg); err != nil {
			logger.Warn("failed to write metrics file", "path", cfg.Output.MetricsFile, "error", err)
		}
	}

	if scanErr != nil {
		return fmt.Errorf("scan interrupted: %w", scanErr)
	}

	// Persist only complete scans.
	rec := storage.Scan{
		ID:        storage.NewScanID(),
		Root:      root,
		StartedAt: started,
		Duration:  elapsed,
		Modules:   len(project.Modules),
	}
	if err := store.SaveScan(ctx, rec, r); err != nil {
		logger.Warn("failed to save scan history", "error", err)
	} else {
		logger.Info("scan complete", "scan_id", rec.ID, "unused", len(r.Rows), "warnings", len(r.Warnings), "duration", elapsed)
	}

	if cfg.Scan.FailOnUnresolved && r.CountKind(report.UnresolvedDependency) > 0 {
		return errUnresolved
	}
	return nil
}
