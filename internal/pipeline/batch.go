package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/crawler"
	"github.com/docshound/docshound/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchFetcher fetches an explicit list of URLs concurrently, one document
// per URL, with no link expansion. It uses errgroup to manage goroutines
// and respect concurrency limits.
//
// Design decision: We use a separate BatchFetcher rather than feeding
// explicit lists through the Frontier because:
// 1. Explicit fetches share no crawl state, so they can run concurrently
// 2. They deliberately overwrite, which the crawl worker must never do
// 3. It keeps the Worker focused on breadth-first traversal
type BatchFetcher struct {
	// engine fetches and renders pages.
	engine crawler.FetchEngine

	// store is the corpus directory documents are written to.
	store *corpus.Store

	// concurrency is the maximum number of concurrent fetches.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed outcomes in input order.
	// Access is synchronized via mutex.
	results []model.PageOutcome
	mu      sync.Mutex
}

// BatchOption configures a BatchFetcher.
type BatchOption func(*BatchFetcher)

// WithBatchLogger sets a custom logger for batch fetching.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchFetcher) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent fetches.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchFetcher) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchFetcher creates a new BatchFetcher over the given engine and
// corpus store.
func NewBatchFetcher(engine crawler.FetchEngine, store *corpus.Store, opts ...BatchOption) *BatchFetcher {
	bf := &BatchFetcher{
		engine:      engine,
		store:       store,
		concurrency: config.DefaultConcurrency,
		results:     make([]model.PageOutcome, 0),
	}

	for _, opt := range opts {
		opt(bf)
	}

	if bf.logger == nil {
		bf.logger = slog.Default()
	}

	return bf
}

// FetchAll fetches every URL in the list concurrently and saves each
// rendering as a document. Existing documents are overwritten; an explicit
// fetch is a request for fresh content.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each URL gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Per-URL failures are recorded in the returned outcomes and do not stop
// the batch. The error return is non-nil only for cancellation or for
// resource exhaustion (disk full), which does stop the batch.
func (bf *BatchFetcher) FetchAll(ctx context.Context, urls []string) ([]model.PageOutcome, error) {
	bf.logger.Info("starting batch fetch",
		"total_urls", len(urls),
		"concurrency", bf.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain input order
	bf.results = make([]model.PageOutcome, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			outcome, err := bf.fetchOne(ctx, pageURL)

			bf.mu.Lock()
			bf.results[i] = outcome
			bf.mu.Unlock()

			if outcome.Status == model.PageFailed {
				bf.logger.Warn("fetch failed",
					"url", pageURL,
					"error", outcome.Error,
				)
			}

			// Only unrecoverable errors propagate; they cancel the group
			// context and stop the remaining fetches.
			return err
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bf.logger.Info("batch fetch complete",
		"total_urls", len(urls),
		"elapsed", elapsed,
	)

	return bf.results, err
}

// FetchAllWithCallback fetches every URL and calls the callback for each
// completed fetch. This is useful for streaming per-document progress.
//
// The callback receives the outcome and the index of the URL in the
// original slice. It is called from the goroutine that completed the
// fetch, so it should be thread-safe if it accesses shared state.
func (bf *BatchFetcher) FetchAllWithCallback(
	ctx context.Context,
	urls []string,
	callback func(outcome model.PageOutcome, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			outcome, err := bf.fetchOne(ctx, pageURL)
			callback(outcome, i)

			return err
		})
	}

	return g.Wait()
}

// fetchOne fetches and saves a single URL. The returned error is non-nil
// only when the batch must stop; per-URL problems are carried in the
// outcome instead.
func (bf *BatchFetcher) fetchOne(ctx context.Context, pageURL string) (model.PageOutcome, error) {
	result, err := bf.engine.Fetch(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return model.PageOutcome{URL: pageURL, Status: model.PageFailed, Error: ctx.Err().Error()}, ctx.Err()
		}
		return model.PageOutcome{URL: pageURL, Status: model.PageFailed, Error: err.Error()}, nil
	}
	if result == nil || !result.Success || strings.TrimSpace(result.Text) == "" {
		return model.PageOutcome{URL: pageURL, Status: model.PageSkipped}, nil
	}

	name, err := bf.store.Write(pageURL, result.Text)
	if err != nil {
		outcome := model.PageOutcome{URL: pageURL, Status: model.PageFailed, Error: err.Error()}
		if errors.Is(err, syscall.ENOSPC) {
			return outcome, fmt.Errorf("corpus write: %w", err)
		}
		return outcome, nil
	}

	return model.PageOutcome{URL: pageURL, File: name, Status: model.PageSaved}, nil
}
