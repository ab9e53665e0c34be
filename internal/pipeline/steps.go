package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/crawler"
	"github.com/docshound/docshound/internal/model"
)

// CrawlStep runs the resumable breadth-first crawl. It scans the corpus for
// documents left by earlier runs, seeds the frontier from them, drains the
// frontier through the fetch engine, and folds the final counters into the
// run summary.
//
// Design decision: The corpus scan happens inside the step rather than in
// the command layer because:
// 1. Resume is not optional; a crawl that skips it double-saves pages
// 2. The recovered count must reach the stats before the worker starts
// 3. It keeps the command layer free of frontier bookkeeping
type CrawlStep struct {
	// store is the corpus directory documents are written to.
	store *corpus.Store

	// scope decides which discovered URLs belong to the crawl.
	scope *crawler.Scope

	// engine fetches and renders pages.
	engine crawler.FetchEngine

	// stats is shared with the signal handler, which marks it interrupted.
	stats *crawler.Stats

	// maxPages limits the number of saved documents. 0 disables the budget.
	maxPages int

	// maxDepth limits link expansion. 0 disables the limit.
	maxDepth int

	// minContent is the rendered-text length a page must exceed to be saved.
	minContent int

	// progress receives one line per saved document.
	progress io.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxPages sets the saved-page budget. 0 means unlimited.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlMaxDepth sets the link-expansion depth limit. 0 means unlimited.
func WithCrawlMaxDepth(depth int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxDepth = depth
	}
}

// WithCrawlMinContent sets the length the rendered text must exceed for a
// page to be saved.
func WithCrawlMinContent(n int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.minContent = n
	}
}

// WithCrawlProgress sets the writer that receives per-document progress
// lines. Defaults to discarding them.
func WithCrawlProgress(progressWriter io.Writer) CrawlStepOption {
	return func(s *CrawlStep) {
		s.progress = progressWriter
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates the crawl phase over the given collaborators.
// The stats must be the same instance the interruption handler marks.
func NewCrawlStep(store *corpus.Store, scope *crawler.Scope, engine crawler.FetchEngine, stats *crawler.Stats, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		store:      store,
		scope:      scope,
		engine:     engine,
		stats:      stats,
		maxPages:   config.DefaultMaxPages,
		minContent: config.DefaultMinContentLength,
		progress:   io.Discard,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, run *model.Run) error {
	resume, err := crawler.Restore(s.store, s.scope)
	if err != nil {
		return fmt.Errorf("restore crawl state: %w", err)
	}
	s.stats.SetRecovered(len(resume.Visited))
	if len(resume.Visited) > 0 {
		s.logger.Info("resuming from existing corpus",
			"documents", len(resume.Visited),
			"candidates", len(resume.Candidates),
		)
	}

	frontier := crawler.NewFrontier()
	resume.Seed(frontier, run.Seeds)

	worker := crawler.NewWorker(frontier, s.scope, s.store, s.stats, s.engine,
		crawler.WithMaxPages(s.maxPages),
		crawler.WithMaxDepth(s.maxDepth),
		crawler.WithMinContentLength(s.minContent),
		crawler.WithLogger(s.logger),
		crawler.WithProgress(s.progress),
	)
	runErr := worker.Run(ctx)

	totals := s.stats.Totals()
	run.Saved = totals.Saved
	run.Recovered = totals.Recovered
	run.Fetched = totals.Fetched
	run.Failed = totals.Failed
	run.Skipped = totals.Skipped
	run.Interrupted = totals.Interrupted || ctx.Err() != nil
	run.Queued = frontier.Len()
	run.Pages = worker.Outcomes()
	run.Duration = time.Since(run.StartedAt)

	s.logger.Info("crawl completed",
		"saved", run.Saved,
		"fetched", run.Fetched,
		"failed", run.Failed,
		"skipped", run.Skipped,
		"queued", run.Queued,
		"interrupted", run.Interrupted,
	)

	// Only unrecoverable resource errors reach here.
	return runErr
}

// RunRecorder persists run summaries. The journal package implements it
// over SQLite; tests substitute in-memory recorders.
type RunRecorder interface {
	Record(ctx context.Context, run *model.Run) error
}

// JournalStep appends the run summary to the journal.
//
// Design decision: Journal failures never fail the pipeline because the
// journal is observational. Crawl state lives in the corpus alone, so a
// missing journal row loses history but never correctness.
type JournalStep struct {
	// recorder receives the run. A nil recorder disables the step.
	recorder RunRecorder

	// logger for structured logging.
	logger *slog.Logger
}

// JournalStepOption configures a JournalStep.
type JournalStepOption func(*JournalStep)

// WithJournalLogger sets a custom logger for the journal step.
func WithJournalLogger(logger *slog.Logger) JournalStepOption {
	return func(s *JournalStep) {
		s.logger = logger
	}
}

// NewJournalStep creates the journal phase. Passing a nil recorder is
// allowed and turns the step into a no-op, which is how the journal is
// disabled from the command line.
func NewJournalStep(recorder RunRecorder, opts ...JournalStepOption) *JournalStep {
	s := &JournalStep{
		recorder: recorder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *JournalStep) Name() string {
	return "journal"
}

// Do executes the journal step.
func (s *JournalStep) Do(ctx context.Context, run *model.Run) error {
	if s.recorder == nil {
		s.logger.Debug("journal disabled, skipping")
		return nil
	}

	if err := s.recorder.Record(ctx, run); err != nil {
		// Non-fatal: the crawl result stands regardless.
		s.logger.Warn("journal write failed", "error", err)
		return nil
	}

	s.logger.Debug("run recorded in journal", "base_url", run.BaseURL)
	return nil
}
