package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/crawler"
	"github.com/docshound/docshound/internal/engine"
	"github.com/docshound/docshound/internal/journal"
	"github.com/docshound/docshound/internal/log"
	"github.com/docshound/docshound/internal/model"
	"github.com/docshound/docshound/internal/pipeline"
	"github.com/docshound/docshound/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a documentation site into a folder of markdown files",
		Long: `Crawl fetches a documentation site breadth-first, starting from the seed
URLs, and saves each page as a markdown file in the output directory.

Only pages on the first seed's host are followed. The output directory is
also the crawl's resume state: documents already there count as visited and
against the page budget, so re-running the same command continues where the
previous run stopped. Ctrl+C stops gracefully after the current page.

Examples:
  # Crawl up to 10 pages (the default budget)
  docshound crawl https://docs.example.com

  # Grow the same corpus to 200 pages
  docshound crawl https://docs.example.com --max-pages 200

  # Crawl without a page budget, one level deep
  docshound crawl https://docs.example.com -m 0 -d 1

  # Seeds from a file, one URL per line ('#' starts a comment)
  docshound crawl --urls-file seeds.txt

  # Render script-heavy sites in headless Chrome
  docshound crawl https://spa.example.com --render chrome

  # Write a JSON run report next to the corpus
  docshound crawl https://docs.example.com --report report.json --format json

Configuration file (.docshound.yaml) example:
  defaults:
    delay: 1s
  sites:
    docs.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      ignorePatterns:
        - "*/changelog/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Seed flags
	cmd.Flags().StringP("urls-file", "f", "",
		"File with one seed URL per line (blank lines and '#' comments ignored)")

	// Corpus flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory to write documents into (doubles as resume state)")
	cmd.Flags().IntP("max-pages", "m", config.DefaultMaxPages,
		"Maximum documents on disk after this run, 0 for unlimited")
	cmd.Flags().IntP("depth", "d", 0,
		"Maximum link depth to follow from the seeds, 0 for unlimited")
	cmd.Flags().Int("min-content", config.DefaultMinContentLength,
		"Minimum rendered-text length for a page to be saved")

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Delay between requests")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("render", config.RenderModeHTTP,
		"Render engine: http or chrome")
	cmd.Flags().Bool("respect-robots", false,
		"Check robots.txt before each fetch")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docshound.yaml in current or home directory)")

	// Report flags
	cmd.Flags().String("report", "",
		"Write the run report to this file instead of stdout (directories created if needed)")
	cmd.Flags().String("format", config.ReportFormatText,
		"Run report format: text, markdown, or json")

	// Journal flags
	cmd.Flags().Bool("no-journal", false,
		"Do not record this run in the journal")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	logger := log.NewRedactLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	seeds, err := resolveSeeds(cfg)
	if err != nil {
		return err
	}

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := crawler.NewStats(0)

	// The first interrupt lets the in-flight page finish and stops at the
	// next loop boundary; a second interrupt aborts the fetch itself.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, stopping after the current page")
		fmt.Fprintln(os.Stderr, "\nInterrupted: finishing the current page (press Ctrl+C again to abort)")
		stats.MarkInterrupted()
		<-sigCh
		logger.Warn("second interrupt received, aborting")
		cancel()
	}()

	return runCrawl(ctx, cfg, seeds, stats, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.URLsFile, err = cmd.Flags().GetString("urls-file")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MinContentLength, err = cmd.Flags().GetInt("min-content")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDelay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.RenderMode, err = cmd.Flags().GetString("render")
	if err != nil {
		return nil, err
	}

	cfg.RespectRobots, err = cmd.Flags().GetBool("respect-robots")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	cfg.ReportFormat, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	cfg.NoJournal, err = cmd.Flags().GetBool("no-journal")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (seed URLs)
	cfg.Seeds = args

	return cfg, nil
}

// resolveSeeds combines positional seeds with the ones read from --urls-file.
// The first seed anchors the crawl scope.
func resolveSeeds(cfg *config.Config) ([]string, error) {
	seeds := make([]string, 0, len(cfg.Seeds))
	seeds = append(seeds, cfg.Seeds...)

	if cfg.URLsFile != "" {
		fromFile, err := readSeedsFile(cfg.URLsFile)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, fromFile...)
	}

	if len(seeds) == 0 {
		return nil, fmt.Errorf("seed file %s contains no URLs", cfg.URLsFile)
	}
	return seeds, nil
}

// readSeedsFile reads one URL per line. Blank lines and lines starting with
// '#' are ignored.
func readSeedsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided seed file path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seeds []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	return seeds, nil
}

// runCrawl executes the crawl pipeline and writes the run report.
func runCrawl(ctx context.Context, cfg *config.Config, seeds []string, stats *crawler.Stats, logger *slog.Logger) error {
	baseURL := seeds[0]
	siteCfg := siteConfigFor(cfg, baseURL)

	var scopeOpts []crawler.ScopeOption
	if len(siteCfg.IgnorePatterns) > 0 {
		scopeOpts = append(scopeOpts, crawler.WithIgnorePatterns(siteCfg.IgnorePatterns))
	}
	if len(siteCfg.FollowPatterns) > 0 {
		scopeOpts = append(scopeOpts, crawler.WithFollowPatterns(siteCfg.FollowPatterns))
	}
	scope, err := crawler.NewScope(baseURL, scopeOpts...)
	if err != nil {
		return fmt.Errorf("invalid seed URL %q: %w", baseURL, err)
	}

	fetchEngine, err := buildEngine(cfg, siteCfg, true, logger)
	if err != nil {
		return err
	}

	store := corpus.NewStore(cfg.OutputDir)

	// The journal is observational: when it cannot be opened the crawl
	// proceeds and only history is lost.
	var recorder pipeline.RunRecorder
	if !cfg.NoJournal {
		j, err := journal.Open(cfg.JournalDir, journal.DefaultOptions())
		if err != nil {
			logger.Warn("journal unavailable, run will not be recorded", "error", err)
		} else {
			defer j.Close()
			recorder = j
			logger.Debug("journal opened", "path", j.Path())
		}
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewCrawlStep(store, scope, fetchEngine, stats,
		pipeline.WithCrawlMaxPages(cfg.MaxPages),
		pipeline.WithCrawlMaxDepth(cfg.MaxDepth),
		pipeline.WithCrawlMinContent(cfg.MinContentLength),
		pipeline.WithCrawlProgress(os.Stdout),
		pipeline.WithCrawlLogger(logger),
	))
	p.AddStep(pipeline.NewJournalStep(recorder, pipeline.WithJournalLogger(logger)))

	run := &model.Run{
		BaseURL:   baseURL,
		Seeds:     seeds,
		OutputDir: cfg.OutputDir,
		StartedAt: time.Now(),
	}

	fmt.Printf("Crawling %s into %s...\n\n", baseURL, cfg.OutputDir)

	// Execute returns non-nil here only for cancellation between steps;
	// step failures land in run.Error because the pipeline continues.
	if err := p.Execute(ctx, run); err != nil && !run.Interrupted {
		return err
	}

	fmt.Println()
	if err := outputReport(cfg, run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// Interruption exits clean; a failed run (disk exhaustion is the one
	// the crawl can surface) fails the command after the report is out.
	return run.Error
}

// siteConfigFor returns the merged site configuration for a URL's host.
func siteConfigFor(cfg *config.Config, rawURL string) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return cfg.SiteConfigs.Defaults
	}
	return cfg.SiteConfigs.GetSiteConfig(u.Host)
}

// buildEngine constructs the fetch engine the configuration names. Site
// overrides from the config file win over global flag values. withDelay is
// false for explicit page lists, which have no politeness requirement.
func buildEngine(cfg *config.Config, siteCfg config.SiteConfig, withDelay bool, logger *slog.Logger) (crawler.FetchEngine, error) {
	var delay time.Duration
	if withDelay {
		delay = cfg.CrawlDelay
		if siteCfg.Delay > 0 {
			delay = siteCfg.Delay
		}
	}

	var robots *engine.Gate
	if cfg.RespectRobots {
		robots = engine.NewGate(nil, cfg.UserAgent, 0)
	}

	renderMode := cfg.RenderMode
	if siteCfg.Render != "" {
		renderMode = siteCfg.Render
	}
	if renderMode != config.RenderModeHTTP && renderMode != config.RenderModeChrome {
		return nil, fmt.Errorf("%w (got %q)", config.ErrInvalidRenderMode, renderMode)
	}

	httpOpts := engine.Options{
		UserAgent:   cfg.UserAgent,
		Headers:     siteCfg.Headers,
		Cookie:      siteCfg.Cookie,
		Timeout:     cfg.Timeout,
		Delay:       delay,
		MaxBodySize: cfg.MaxBodySize,
		ProxyURL:    siteCfg.Proxy,
		Robots:      robots,
		Logger:      logger,
	}

	if renderMode == config.RenderModeChrome {
		// The fallback sees only URLs that already waited out the delay
		// and passed the robots gate in the renderer, so it carries neither.
		fallbackOpts := httpOpts
		fallbackOpts.Delay = 0
		fallbackOpts.Robots = nil
		fallback, err := engine.NewHTTPEngine(fallbackOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create fallback engine: %w", err)
		}
		return engine.NewChromeEngine(engine.ChromeOptions{
			UserAgent:   cfg.UserAgent,
			MaxBodySize: cfg.MaxBodySize,
			Delay:       delay,
			Robots:      robots,
			Logger:      logger,
		}, fallback), nil
	}

	httpEngine, err := engine.NewHTTPEngine(httpOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch engine: %w", err)
	}
	return httpEngine, nil
}

// outputReport writes the run report in the configured format.
func outputReport(cfg *config.Config, run *model.Run) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// 0600: reports list every URL the crawl touched, and site configs
		// can embed credentials in URLs
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	writer, err := report.ForFormat(cfg.ReportFormat, output)
	if err != nil {
		return err
	}
	_, err = writer.Write(run)
	return err
}
