package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-jumia/config"
	"github.com/aluiziolira/go-scrape-jumia/fetch"
	"github.com/aluiziolira/go-scrape-jumia/metrics"
	"github.com/aluiziolira/go-scrape-jumia/models"
	"github.com/aluiziolira/go-scrape-jumia/pipeline"
	"github.com/aluiziolira/go-scrape-jumia/scraper"
	"github.com/aluiziolira/go-scrape-jumia/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-runewidth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Scrape Jumia category listings into enriched product records",
		Long: `Scraper walks the configured Jumia categories page by page, normalizes
every product card (price, brand, model, discount, tier, value score) and
exports the run as CSV/JSONL files and, optionally, to PostgreSQL.

Examples:
  # Two pages per category with the plain HTTP fetcher
  scraper --pages 2

  # Render pages in headless Chromium and write both CSV and JSONL
  scraper --fetcher browser --format dual`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromViper(v)

			logger, level := newLogger(cfg.Verbose)
			slog.SetDefault(logger)
			slog.SetLogLoggerLevel(level.Level())

			if err := cfg.Validate(); err != nil {
				slog.Error("invalid configuration", slog.Any("error", err))
				return err
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Config file (YAML)")
	flags.Int("pages", defaults.PageOverride, "Pages per category (0 keeps each category's default)")
	flags.Duration("page-delay", defaults.PageDelay, "Delay between pages of a category")
	flags.Duration("category-delay", defaults.CategoryDelay, "Delay between categories")
	flags.Duration("timeout", defaults.Timeout, "Page load timeout")
	flags.Duration("wait-timeout", defaults.WaitTimeout, "Maximum wait for product cards (browser fetcher)")
	flags.Int("max-retries", defaults.MaxRetries, "Maximum retry attempts per page (http fetcher)")
	flags.Duration("retry-backoff", defaults.RetryBackoff, "Initial retry backoff")
	flags.Duration("retry-backoff-max", defaults.RetryBackoffMax, "Maximum retry backoff")
	flags.String("fetcher", defaults.Fetcher, "Page fetcher: http or browser")
	flags.Bool("headless", defaults.Headless, "Run the browser headless")
	flags.String("output-dir", defaults.OutputDir, "Directory for exported files")
	flags.String("format", defaults.OutputFormat, "Product export format: csv, json, dual, or xlsx")
	flags.Int("batch-size", defaults.BatchSize, "Records per export write")
	flags.String("categories", defaults.CategoriesFile, "YAML category catalogue (built-in catalogue when empty)")
	flags.Int("dedupe-size", defaults.DedupeCacheSize, "Skip repeated product URLs, remembering up to N (0 disables)")
	flags.String("id-prefix", defaults.IDPrefix, "Product ID prefix")
	flags.String("database-url", defaults.DatabaseURL, "PostgreSQL DSN; records are also stored there when set")
	flags.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.String("user-agent", defaults.UserAgent, "User agent sent with every request")
	flags.String("base-url", defaults.BaseURL, "Site root")
	flags.Bool("respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives (http fetcher)")
	flags.BoolP("verbose", "v", defaults.Verbose, "Enable verbose logging")

	return cmd
}

func initConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

func configFromViper(v *viper.Viper) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = v.GetString("base-url")
	cfg.PageOverride = v.GetInt("pages")
	cfg.PageDelay = v.GetDuration("page-delay")
	cfg.CategoryDelay = v.GetDuration("category-delay")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.WaitTimeout = v.GetDuration("wait-timeout")
	cfg.MaxRetries = v.GetInt("max-retries")
	cfg.RetryBackoff = v.GetDuration("retry-backoff")
	cfg.RetryBackoffMax = v.GetDuration("retry-backoff-max")
	cfg.Fetcher = strings.ToLower(v.GetString("fetcher"))
	cfg.Headless = v.GetBool("headless")
	cfg.OutputDir = v.GetString("output-dir")
	cfg.OutputFormat = strings.ToLower(v.GetString("format"))
	cfg.BatchSize = v.GetInt("batch-size")
	cfg.CategoriesFile = v.GetString("categories")
	cfg.DedupeCacheSize = v.GetInt("dedupe-size")
	cfg.IDPrefix = v.GetString("id-prefix")
	cfg.DatabaseURL = v.GetString("database-url")
	cfg.MetricsAddr = v.GetString("metrics-addr")
	cfg.UserAgent = v.GetString("user-agent")
	cfg.RespectRobotsTxt = v.GetBool("respect-robots")
	cfg.Verbose = v.GetBool("verbose")
	return cfg
}

func run(parent context.Context, cfg *config.Config, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}

	categories, err := loadCategories(cfg)
	if err != nil {
		slog.Error("loading categories", slog.Any("error", err))
		return err
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("fetcher", cfg.Fetcher),
		slog.Int("categories", len(categories)),
		slog.Int("page_override", cfg.PageOverride),
	)

	m := metrics.New()

	fetcher, err := newFetcher(cfg, m)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			slog.Error("close fetcher", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: newMetricsRouter(m),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	processor := pipeline.NewProcessor(pipeline.NewBuilder(cfg.BaseURL, cfg.IDPrefix))
	s := scraper.New(fetcher, processor, scraper.SleepPacer{}, cfg, m)

	result, err := s.Run(ctx, categories)
	if err != nil {
		if !scraper.IsCanceled(err) || result == nil {
			slog.Error("scraping failed", slog.Any("error", err))
			return err
		}
		slog.Warn("run interrupted, exporting partial results", slog.Any("error", err))
	}

	files := pipeline.NewFileExporter(cfg.OutputDir, cfg.OutputFormat, cfg.BatchSize)
	sinks := pipeline.Sinks{files}
	if cfg.DatabaseURL != "" {
		// Export must still run after an interrupt.
		dbCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		pool, err := store.Open(dbCtx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connecting to database", slog.Any("error", err))
		} else {
			defer pool.Close()
			sinks = append(sinks, store.NewPostgresSink(pool))
		}
	}

	exportErr := sinks.Export(context.Background(), result)
	switch {
	case errors.Is(exportErr, pipeline.ErrNoRecords):
		slog.Warn("no products scraped, nothing exported")
		exportErr = nil
	case exportErr != nil:
		slog.Error("export failed", slog.Any("error", exportErr))
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(out, result, categories, files.Files())
	return exportErr
}

func loadCategories(cfg *config.Config) ([]models.CategorySpec, error) {
	if cfg.CategoriesFile == "" {
		return config.DefaultCategories(), nil
	}
	return config.LoadCategories(cfg.CategoriesFile)
}

func newFetcher(cfg *config.Config, m *metrics.Metrics) (fetch.Fetcher, error) {
	switch cfg.Fetcher {
	case config.FetcherBrowser:
		return fetch.NewBrowserFetcher(cfg, m)
	case config.FetcherHTTP:
		return fetch.NewHTTPFetcher(cfg, m)
	default:
		return nil, fmt.Errorf("unsupported fetcher: %s", cfg.Fetcher)
	}
}

func newMetricsRouter(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	return r
}

func printSummary(out io.Writer, result *models.RunResult, categories []models.CategorySpec, files []string) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(out, "\n"+separator)
	fmt.Fprintln(out, "Scrape complete")

	stats := result.Stats
	fmt.Fprintf(out, "  Run ID:        %s\n", result.RunID)
	fmt.Fprintf(out, "  Total items:   %d\n", stats.TotalProducts)
	fmt.Fprintf(out, "  Categories:    %d/%d\n", stats.CategoriesProcessed, len(categories))
	fmt.Fprintf(out, "  Pages:         %d\n", stats.PagesScraped)
	fmt.Fprintf(out, "  Errors:        %d\n", stats.Errors)
	fmt.Fprintf(out, "  Duration:      %v\n", stats.Duration.Round(time.Millisecond))
	if secs := stats.Duration.Seconds(); secs > 0 {
		fmt.Fprintf(out, "  Items/sec:     %.2f\n", float64(stats.TotalProducts)/secs)
	}

	width := 0
	for _, key := range result.Order {
		if w := runewidth.StringWidth(result.Categories[key].Name); w > width {
			width = w
		}
	}
	if len(result.Order) > 0 {
		fmt.Fprintln(out, "  By category:")
	}
	for _, key := range result.Order {
		c := result.Categories[key]
		fmt.Fprintf(out, "    %s  %4d products  last page %d  %s\n",
			runewidth.FillRight(c.Name, width), c.ProductsFound, c.PagesScraped, c.State)
	}

	for _, f := range files {
		fmt.Fprintf(out, "  Output file:   %s\n", f)
	}
	fmt.Fprintln(out, separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
