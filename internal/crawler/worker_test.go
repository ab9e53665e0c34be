package crawler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/model"
)

// stubEngine serves canned pages and records fetch order.
type stubEngine struct {
	mu    sync.Mutex
	pages map[string]*model.FetchResult
	errs  map[string]error
	calls []string

	// onFetch, when set, runs before each fetch returns. Used to inject
	// cancellation mid-flight.
	onFetch func(pageURL string)
}

func (e *stubEngine) Fetch(_ context.Context, pageURL string) (*model.FetchResult, error) {
	e.mu.Lock()
	e.calls = append(e.calls, pageURL)
	e.mu.Unlock()

	if e.onFetch != nil {
		e.onFetch(pageURL)
	}
	if err, ok := e.errs[pageURL]; ok {
		return nil, err
	}
	if result, ok := e.pages[pageURL]; ok {
		return result, nil
	}
	return &model.FetchResult{Success: false}, nil
}

func (e *stubEngine) fetchOrder() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// page builds a successful fetch result with markup links.
func page(text string, hrefs ...string) *model.FetchResult {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, href := range hrefs {
		b.WriteString(`<a href="` + href + `">link</a>`)
	}
	b.WriteString("</body></html>")
	return &model.FetchResult{Success: true, Text: text, HTML: b.String()}
}

const longBody = "This page has more than enough rendered text to clear the " +
	"minimum content threshold used by the crawl worker in these tests. " +
	"It keeps going for a little while to be safely past the limit."

// TestWorkerRun tests the crawl loop end to end against a stub engine.
func TestWorkerRun(t *testing.T) {
	t.Parallel()

	t.Run("saves pages breadth-first", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start": page(longBody, "/a", "/b"),
			"https://site.example.com/a":     page(longBody, "/c"),
			"https://site.example.com/b":     page(longBody),
			"https://site.example.com/c":     page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		wantOrder := []string{
			"https://site.example.com/start",
			"https://site.example.com/a",
			"https://site.example.com/b",
			"https://site.example.com/c",
		}
		got := engine.fetchOrder()
		if len(got) != len(wantOrder) {
			t.Fatalf("fetch order = %v, want %v", got, wantOrder)
		}
		for i := range wantOrder {
			if got[i] != wantOrder[i] {
				t.Errorf("fetch %d = %q, want %q", i, got[i], wantOrder[i])
			}
		}

		if stats.Saved() != 4 {
			t.Errorf("saved = %d, want 4", stats.Saved())
		}
		entries, err := store.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 4 {
			t.Errorf("files on disk = %d, want 4", len(entries))
		}
	})

	t.Run("respects page budget", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start": page(longBody, "/a", "/b", "/c"),
			"https://site.example.com/a":     page(longBody),
			"https://site.example.com/b":     page(longBody),
			"https://site.example.com/c":     page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(2))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if stats.Saved() != 2 {
			t.Errorf("saved = %d, want 2", stats.Saved())
		}
		if frontier.Len() != 2 {
			t.Errorf("queue remaining = %d, want 2", frontier.Len())
		}
	})

	t.Run("budget counts recovered documents", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/new": page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/new", 1)
		stats := NewStats(3)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/new"), store, stats, engine,
			WithMaxPages(3))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if len(engine.fetchOrder()) != 0 {
			t.Errorf("expected no fetches with budget already met, got %v", engine.fetchOrder())
		}
	})

	t.Run("saves a url discovered through multiple paths once", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start":  page(longBody, "/shared", "/other"),
			"https://site.example.com/other":  page(longBody, "/shared"),
			"https://site.example.com/shared": page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		shared := 0
		for _, u := range engine.fetchOrder() {
			if u == "https://site.example.com/shared" {
				shared++
			}
		}
		if shared != 1 {
			t.Errorf("shared page fetched %d times, want 1", shared)
		}
		if stats.Saved() != 3 {
			t.Errorf("saved = %d, want 3", stats.Saved())
		}
	})

	t.Run("short pages are fetched but not saved or expanded", func(t *testing.T) {
		t.Parallel()

		atThreshold := strings.Repeat("x", 100)
		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start": {Success: true, Text: atThreshold,
				HTML: `<a href="/hidden">x</a>`},
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0), WithMinContentLength(100))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if stats.Saved() != 0 {
			t.Errorf("saved = %d, want 0 for content at the threshold", stats.Saved())
		}
		if got := engine.fetchOrder(); len(got) != 1 {
			t.Errorf("links of a skipped page must not be expanded, fetched %v", got)
		}
		if totals := stats.Totals(); totals.Skipped != 1 {
			t.Errorf("skipped = %d, want 1", totals.Skipped)
		}
	})

	t.Run("fetch failure is logged and crawl continues", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{
			pages: map[string]*model.FetchResult{
				"https://site.example.com/start": page(longBody, "/bad", "/good"),
				"https://site.example.com/good":  page(longBody),
			},
			errs: map[string]error{
				"https://site.example.com/bad": errors.New("connection refused"),
			},
		}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if stats.Saved() != 2 {
			t.Errorf("saved = %d, want 2", stats.Saved())
		}
		totals := stats.Totals()
		if totals.Failed != 1 {
			t.Errorf("failed = %d, want 1", totals.Failed)
		}
		if !frontier.Visited("https://site.example.com/bad") {
			t.Error("failed url must still count as visited")
		}
	})

	t.Run("does not re-save an existing document", func(t *testing.T) {
		t.Parallel()

		store := corpus.NewStore(t.TempDir())
		if _, err := store.Write("https://site.example.com/kept", "original body"); err != nil {
			t.Fatal(err)
		}

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/kept":  page(longBody, "/fresh"),
			"https://site.example.com/fresh": page(longBody),
		}}

		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/kept", 1)
		stats := NewStats(1)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/kept"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		// The existing page was fetched for discovery only.
		_, body, ok, err := store.ReadDocument(store.Path("https://site.example.com/kept"))
		if err != nil || !ok {
			t.Fatalf("read back failed: ok=%v err=%v", ok, err)
		}
		if body != "original body" {
			t.Errorf("existing document was overwritten: %q", body)
		}

		// Its links were still followed.
		if !store.Exists("https://site.example.com/fresh") {
			t.Error("link from existing document should have been crawled")
		}
		if stats.Saved() != 2 {
			t.Errorf("saved = %d, want 2 (one recovered, one new)", stats.Saved())
		}
	})

	t.Run("cancellation before a write saves nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		engine := &stubEngine{
			pages: map[string]*model.FetchResult{
				"https://site.example.com/start": page(longBody, "/a"),
				"https://site.example.com/a":     page(longBody),
			},
			// The interrupt arrives while the first fetch is in flight.
			onFetch: func(string) { cancel() },
		}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(ctx); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if stats.Saved() != 0 {
			t.Errorf("saved = %d, want 0 after cancellation before write", stats.Saved())
		}
		entries, err := store.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("files on disk = %d, want 0", len(entries))
		}
	})

	t.Run("interrupt flag stops at the next boundary without saving", func(t *testing.T) {
		t.Parallel()

		stats := NewStats(0)
		engine := &stubEngine{
			pages: map[string]*model.FetchResult{
				"https://site.example.com/start": page(longBody, "/a"),
				"https://site.example.com/a":     page(longBody),
			},
			// A graceful interrupt lands while the fetch is in flight; the
			// fetch completes but its result must be discarded.
			onFetch: func(string) { stats.MarkInterrupted() },
		}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if got := engine.fetchOrder(); len(got) != 1 {
			t.Errorf("loop continued past the interrupt: fetched %v", got)
		}
		entries, err := store.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("files on disk = %d, want 0", len(entries))
		}
		if stats.Saved() != 0 {
			t.Errorf("saved = %d, want 0", stats.Saved())
		}
	})

	t.Run("depth limit stops expansion", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start": page(longBody, "/level1"),
			"https://site.example.com/level1": page(longBody,
				"/level2"),
			"https://site.example.com/level2": page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0), WithMaxDepth(1))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if store.Exists("https://site.example.com/level2") {
			t.Error("page beyond depth limit should not be crawled")
		}
		if stats.Saved() != 2 {
			t.Errorf("saved = %d, want 2", stats.Saved())
		}
	})

	t.Run("uses engine links when provided", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start": {
				Success: true,
				Text:    longBody,
				// Markup mentions a page the engine's own link list does
				// not, proving the list takes precedence.
				HTML:  `<a href="/ignored">x</a>`,
				Links: []string{"/chosen"},
			},
			"https://site.example.com/chosen": page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if store.Exists("https://site.example.com/ignored") {
			t.Error("markup link should be ignored when the engine extracted links")
		}
		if !store.Exists("https://site.example.com/chosen") {
			t.Error("engine-provided link should be crawled")
		}
	})

	t.Run("falls back to rendered text when markup is absent", func(t *testing.T) {
		t.Parallel()

		engine := &stubEngine{pages: map[string]*model.FetchResult{
			"https://site.example.com/start": {
				Success: true,
				Text:    longBody + " See [next](/next).",
			},
			"https://site.example.com/next": page(longBody),
		}}

		store := corpus.NewStore(t.TempDir())
		frontier := NewFrontier()
		frontier.Offer("https://site.example.com/start", 0)
		stats := NewStats(0)

		w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
			WithMaxPages(0))
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if !store.Exists("https://site.example.com/next") {
			t.Error("link from rendered text should be crawled when markup is absent")
		}
	})
}

// TestWorkerProgress tests the progress line format. A saved page's own
// links are queued after its line prints, so the denominator reflects the
// queue as it stood when the page was taken.
func TestWorkerProgress(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{pages: map[string]*model.FetchResult{
		"https://site.example.com/start": page(longBody, "/a", "/b"),
		"https://site.example.com/a":     page(longBody),
		"https://site.example.com/b":     page(longBody),
	}}

	store := corpus.NewStore(t.TempDir())
	frontier := NewFrontier()
	frontier.Offer("https://site.example.com/start", 0)
	stats := NewStats(0)

	var progress bytes.Buffer
	w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
		WithMaxPages(0), WithProgress(&progress))
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "[1/1] start.md\n[2/3] a.md\n[3/3] b.md\n"
	if progress.String() != want {
		t.Errorf("progress output:\n%q\nwant:\n%q", progress.String(), want)
	}
}

// TestWorkerOutcomes tests per-url outcome recording.
func TestWorkerOutcomes(t *testing.T) {
	t.Parallel()

	store := corpus.NewStore(t.TempDir())
	if _, err := store.Write("https://site.example.com/old", "already here"); err != nil {
		t.Fatal(err)
	}

	engine := &stubEngine{
		pages: map[string]*model.FetchResult{
			"https://site.example.com/start": page(longBody),
			"https://site.example.com/old":   page(longBody),
			"https://site.example.com/thin":  {Success: true, Text: "tiny"},
		},
		errs: map[string]error{
			"https://site.example.com/broken": errors.New("boom"),
		},
	}

	frontier := NewFrontier()
	frontier.Offer("https://site.example.com/start", 0)
	frontier.Offer("https://site.example.com/old", 0)
	frontier.Offer("https://site.example.com/thin", 0)
	frontier.Offer("https://site.example.com/broken", 0)
	stats := NewStats(1)

	w := NewWorker(frontier, mustScope(t, "https://site.example.com/start"), store, stats, engine,
		WithMaxPages(0))
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := map[string]model.PageStatus{
		"https://site.example.com/start":  model.PageSaved,
		"https://site.example.com/old":    model.PageExisting,
		"https://site.example.com/thin":   model.PageSkipped,
		"https://site.example.com/broken": model.PageFailed,
	}
	outcomes := w.Outcomes()
	if len(outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d: %+v", len(outcomes), len(want), outcomes)
	}
	for _, o := range outcomes {
		if o.Status != want[o.URL] {
			t.Errorf("outcome for %s = %v, want %v", o.URL, o.Status, want[o.URL])
		}
	}
}

// TestWorkerResume tests that a second run re-fetches nothing it already
// saved and picks up where the budget stopped the first run.
func TestWorkerResume(t *testing.T) {
	t.Parallel()

	site := map[string]*model.FetchResult{
		"https://site.example.com/start": {
			Success: true,
			Text:    longBody + " Continue with [a](/a) and [b](/b).",
		},
		"https://site.example.com/a": {
			Success: true,
			Text:    longBody + " Deeper: [c](/c).",
		},
		"https://site.example.com/b": {Success: true, Text: longBody},
		"https://site.example.com/c": {Success: true, Text: longBody},
	}

	dir := t.TempDir()
	scope := mustScope(t, "https://site.example.com/start")

	// First run: budget of two pages.
	store := corpus.NewStore(dir)
	engine1 := &stubEngine{pages: site}
	frontier1 := NewFrontier()
	frontier1.Offer("https://site.example.com/start", 0)
	stats1 := NewStats(0)
	w1 := NewWorker(frontier1, scope, store, stats1, engine1, WithMaxPages(2))
	if err := w1.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if stats1.Saved() != 2 {
		t.Fatalf("first run saved = %d, want 2", stats1.Saved())
	}

	// Second run resumes from the corpus alone.
	resume, err := Restore(store, scope)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(resume.Visited) != 2 {
		t.Fatalf("recovered %d documents, want 2", len(resume.Visited))
	}

	engine2 := &stubEngine{pages: site}
	frontier2 := NewFrontier()
	resume.Seed(frontier2, []string{"https://site.example.com/start"})
	stats2 := NewStats(len(resume.Visited))
	w2 := NewWorker(frontier2, scope, store, stats2, engine2, WithMaxPages(0))
	if err := w2.Run(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	// Nothing already saved is fetched again.
	for _, u := range engine2.fetchOrder() {
		if u == "https://site.example.com/start" || u == "https://site.example.com/a" {
			t.Errorf("second run re-fetched already-saved %s", u)
		}
	}

	entries, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("corpus has %d documents after resume, want 4", len(entries))
	}
	if stats2.Saved() != 4 {
		t.Errorf("second run saved = %d, want 4", stats2.Saved())
	}

	// Third run: the site is fully crawled, so nothing is fetched at all.
	resume3, err := Restore(store, scope)
	if err != nil {
		t.Fatal(err)
	}
	engine3 := &stubEngine{pages: site}
	frontier3 := NewFrontier()
	resume3.Seed(frontier3, []string{"https://site.example.com/start"})
	stats3 := NewStats(len(resume3.Visited))
	w3 := NewWorker(frontier3, scope, store, stats3, engine3, WithMaxPages(0))
	if err := w3.Run(context.Background()); err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	if calls := engine3.fetchOrder(); len(calls) != 0 {
		t.Errorf("idempotent re-run made fetches: %v", calls)
	}
}
