package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"syscall"

	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/model"
)

// FetchEngine retrieves one page and renders it to text. Implementations
// live in the engine package; tests substitute stubs.
//
// A returned error means the transport or renderer failed; a result with
// Success false means the page itself was not worth keeping. The worker
// treats both the same way: log, count, move on.
type FetchEngine interface {
	Fetch(ctx context.Context, pageURL string) (*model.FetchResult, error)
}

// Worker drains a Frontier until it is empty, the page budget is reached,
// or the run is cancelled.
type Worker struct {
	frontier *Frontier
	scope    *Scope
	store    *corpus.Store
	stats    *Stats
	engine   FetchEngine

	// maxPages stops the crawl once stats.Saved() reaches it. 0 disables
	// the budget.
	maxPages int

	// maxDepth stops link expansion on pages at this depth. 0 disables
	// the limit.
	maxDepth int

	// minContent is the character count the rendered text must exceed to
	// be saved. Pages at or below it are treated as non-content.
	minContent int

	logger   *slog.Logger
	progress io.Writer

	outcomes []model.PageOutcome
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxPages sets the saved-page budget. 0 means unlimited.
func WithMaxPages(n int) WorkerOption {
	return func(w *Worker) {
		w.maxPages = n
	}
}

// WithMaxDepth sets the link-expansion depth limit. 0 means unlimited.
// Seeds are depth 0, their links depth 1, and so on.
func WithMaxDepth(n int) WorkerOption {
	return func(w *Worker) {
		w.maxDepth = n
	}
}

// WithMinContentLength sets the length the rendered text must exceed for a
// page to be saved.
func WithMinContentLength(n int) WorkerOption {
	return func(w *Worker) {
		w.minContent = n
	}
}

// WithLogger sets the worker's logger.
func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithProgress sets the writer progress lines go to.
func WithProgress(progressWriter io.Writer) WorkerOption {
	return func(w *Worker) {
		w.progress = progressWriter
	}
}

// NewWorker creates a Worker over the given crawl state and collaborators.
func NewWorker(frontier *Frontier, scope *Scope, store *corpus.Store, stats *Stats, engine FetchEngine, opts ...WorkerOption) *Worker {
	w := &Worker{
		frontier:   frontier,
		scope:      scope,
		store:      store,
		stats:      stats,
		engine:     engine,
		maxPages:   10,
		minContent: 100,
		logger:     slog.New(slog.DiscardHandler),
		progress:   io.Discard,
	}

	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the crawl loop. It returns nil on exhaustion, budget,
// interruption, or cancellation; only unrecoverable resource errors (disk
// full) are returned.
//
// Interruption is observed two ways. Cancelling ctx aborts the in-flight
// fetch and stops the loop. Marking the Stats interrupted lets the current
// fetch finish, then stops at the next loop boundary without saving; this
// is the graceful path a first interrupt signal takes.
//
// Run is not safe for concurrent use; create one Worker per crawl.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if w.stats.Interrupted() {
			return nil
		}

		if w.maxPages > 0 && w.stats.Saved() >= w.maxPages {
			w.logger.Debug("page budget reached", "max_pages", w.maxPages)
			return nil
		}

		pageURL, depth, ok := w.frontier.Take()
		if !ok {
			return nil
		}

		// Defensive: the frontier never queues a seen URL, so this
		// cannot trigger through Offer alone. It guards callers that
		// mark URLs visited out of band between queue and take.
		if w.frontier.Visited(pageURL) {
			continue
		}
		w.frontier.MarkVisited(pageURL)

		existing := w.store.Exists(pageURL)
		w.stats.addFetched()

		result, err := w.engine.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.stats.addFailed()
			w.logger.Warn("fetch failed", "url", pageURL, "error", err)
			w.record(model.PageOutcome{URL: pageURL, Status: model.PageFailed, Error: err.Error()})
			continue
		}
		if result == nil || !result.Success || !w.sufficient(result.Text) {
			w.stats.addSkipped()
			w.logger.Debug("page not saved", "url", pageURL, "reason", "insufficient content")
			w.record(model.PageOutcome{URL: pageURL, Status: model.PageSkipped})
			continue
		}

		stop, name, err := w.persist(ctx, pageURL, result.Text, existing)
		if err != nil {
			if errors.Is(err, syscall.ENOSPC) {
				return fmt.Errorf("corpus write: %w", err)
			}
			w.stats.addFailed()
			w.logger.Error("save failed", "url", pageURL, "error", err)
			w.record(model.PageOutcome{URL: pageURL, Status: model.PageFailed, Error: err.Error()})
			continue
		}
		if stop {
			return nil
		}

		status := model.PageSaved
		if existing {
			status = model.PageExisting
			w.logger.Debug("document already on disk", "url", pageURL, "file", name)
		}
		w.record(model.PageOutcome{URL: pageURL, File: name, Status: status})

		w.expand(pageURL, depth, result)
	}
}

// persist writes the document unless one already exists, under the same
// exclusive section as the cancel re-check and the counter increment. The
// returned stop flag means cancellation won the race and the loop must end
// without a write.
func (w *Worker) persist(ctx context.Context, pageURL, text string, existing bool) (stop bool, name string, err error) {
	w.stats.mu.Lock()
	defer w.stats.mu.Unlock()

	if ctx.Err() != nil || w.stats.interrupted {
		return true, "", nil
	}
	if existing || w.store.Exists(pageURL) {
		return false, corpus.FileName(pageURL), nil
	}

	name, err = w.store.Write(pageURL, text)
	if err != nil {
		return false, "", err
	}
	w.stats.saved++
	fmt.Fprintf(w.progress, "[%d/%d] %s\n", w.stats.saved, w.stats.saved+w.frontier.Len(), name)
	return false, name, nil
}

// expand offers the page's in-scope links to the frontier, unless the page
// sits at the depth limit. Links come from the engine when it extracted
// them, otherwise from the returned content.
func (w *Worker) expand(pageURL string, depth int, result *model.FetchResult) {
	if w.maxDepth > 0 && depth >= w.maxDepth {
		return
	}

	links := result.Links
	if links == nil {
		links = Links(result.HTML, result.Text)
	}
	if len(links) == 0 {
		return
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}

	offered := 0
	for _, raw := range links {
		normalized, ok := Normalize(raw, base)
		if !ok || !w.scope.Allows(normalized) {
			continue
		}
		if w.frontier.Offer(normalized, depth+1) {
			offered++
		}
	}
	if offered > 0 {
		w.logger.Debug("frontier expanded", "url", pageURL, "new_links", offered)
	}
}

// sufficient reports whether rendered text clears the content threshold.
func (w *Worker) sufficient(text string) bool {
	return len(strings.TrimSpace(text)) > w.minContent
}

// record appends a page outcome for the run report.
func (w *Worker) record(outcome model.PageOutcome) {
	w.outcomes = append(w.outcomes, outcome)
}

// Outcomes returns the per-URL records accumulated by Run, in processing
// order.
func (w *Worker) Outcomes() []model.PageOutcome {
	return w.outcomes
}
