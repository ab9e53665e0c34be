package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/log"
	"github.com/docshound/docshound/internal/model"
	"github.com/docshound/docshound/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "Fetch single pages without following links",
		Long: `Fetch retrieves each given URL once, renders it to markdown, and saves it
in the output directory. No links are followed and no resume scan happens.
Existing documents are overwritten; an explicit fetch is a request for
fresh content.

Pages fetch concurrently, and unlike crawl, any page that renders to
non-empty text is saved regardless of length.

Examples:
  # Fetch two specific pages
  docshound fetch https://docs.example.com/install https://docs.example.com/faq

  # Re-fetch every URL in a file with 8 workers
  docshound fetch --urls-file pages.txt --concurrency 8

  # Fetch a script-heavy page through headless Chrome
  docshound fetch https://spa.example.com/guide --render chrome`,
		Args: cobra.ArbitraryArgs,
		RunE: runFetchCmd,
	}

	// Seed flags
	cmd.Flags().StringP("urls-file", "f", "",
		"File with one URL per line (blank lines and '#' comments ignored)")

	// Corpus flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory to write documents into")

	// Fetch behavior flags
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of concurrent fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String("render", config.RenderModeHTTP,
		"Render engine: http or chrome")
	cmd.Flags().Bool("respect-robots", false,
		"Check robots.txt before each fetch")

	// Configuration file. No shorthand: -c belongs to --concurrency here.
	cmd.Flags().String("config", "",
		"Configuration file path (default: .docshound.yaml in current or home directory)")

	return cmd
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildFetchConfig(cmd, args)
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

	urls, err := resolveSeeds(cfg)
	if err != nil {
		return err
	}

	// Set up context with signal handling. Explicit fetches have no
	// graceful middle ground; an interrupt cancels the batch.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, cancelling...")
		cancel()
	}()

	return runFetch(ctx, cfg, urls, logger)
}

// buildFetchConfig creates a Config from cobra command flags.
func buildFetchConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
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

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
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

	// Load site-specific configurations from config file, with the same
	// explicit-path rule as crawl.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (page URLs)
	cfg.Seeds = args

	return cfg, nil
}

// runFetch executes the batch fetch.
func runFetch(ctx context.Context, cfg *config.Config, urls []string, logger *slog.Logger) error {
	// Site overrides key off the first URL's host; explicit lists are
	// normally all on one site.
	siteCfg := siteConfigFor(cfg, urls[0])

	fetchEngine, err := buildEngine(cfg, siteCfg, false, logger)
	if err != nil {
		return err
	}

	store := corpus.NewStore(cfg.OutputDir)

	fetcher := pipeline.NewBatchFetcher(fetchEngine, store,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Printf("Fetching %d page(s) into %s...\n\n", len(urls), cfg.OutputDir)
	startTime := time.Now()

	// Process with callback for streaming output
	var mu sync.Mutex
	var saved, failed, skipped int
	err = fetcher.FetchAllWithCallback(ctx, urls, func(outcome model.PageOutcome, index int) {
		mu.Lock()
		defer mu.Unlock()

		switch outcome.Status {
		case model.PageSaved:
			saved++
			fmt.Printf("[%d/%d] %s\n", index+1, len(urls), outcome.File)
		case model.PageFailed:
			failed++
			fmt.Fprintf(os.Stderr, "[%d/%d] failed: %s (%s)\n", index+1, len(urls), outcome.URL, outcome.Error)
		default:
			skipped++
			fmt.Printf("[%d/%d] skipped: %s\n", index+1, len(urls), outcome.URL)
		}
	})

	elapsed := time.Since(startTime)

	if err != nil {
		// Cancellation is a clean exit with an honest partial summary.
		if ctx.Err() != nil {
			fmt.Printf("\nFetch interrupted: %d saved, %d failed, %d skipped\n", saved, failed, skipped)
			return nil
		}
		return err
	}

	fmt.Printf("\nFetched %d page(s) in %s: %d saved, %d failed, %d skipped\n",
		len(urls), elapsed.Round(time.Millisecond), saved, failed, skipped)

	return nil
}
