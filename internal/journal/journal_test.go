package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docshound/docshound/internal/model"
)

// setupTestJournal creates a temporary journal for testing.
func setupTestJournal(t *testing.T) (*Journal, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	j, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}

	cleanup := func() {
		_ = j.Close()
	}

	return j, cleanup
}

// sampleRun builds a run with every counter populated.
func sampleRun(baseURL string, started time.Time, saved int) *model.Run {
	return &model.Run{
		BaseURL:   baseURL,
		Seeds:     []string{baseURL},
		OutputDir: "docs",
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Saved:     saved,
		Recovered: 1,
		Fetched:   saved + 2,
		Failed:    1,
		Skipped:   1,
		Queued:    3,
		Phases:    []string{"crawl"},
		Pages: []model.PageOutcome{
			{URL: baseURL + "/index.html", File: "index.md", Status: model.PageSaved},
			{URL: baseURL + "/missing", Status: model.PageFailed, Error: "unexpected status 404 Not Found"},
		},
	}
}

// TestOpen tests journal opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates journal in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "newdir", "subdir")
		j, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open journal: %v", err)
		}
		defer j.Close()

		dbPath := filepath.Join(dir, "docshound.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("journal file was not created")
		}
		if j.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", j.Path(), dbPath)
		}
	})

	t.Run("CreateIfNotExists=false returns error when journal does not exist", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nonexistent")
		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and journal does not exist")
		}
		if !strings.Contains(err.Error(), "journal not found") {
			t.Errorf("expected error to name the missing journal, got %q", err.Error())
		}

		// The directory must not be created either.
		if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
			t.Error("journal directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing journal", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "existing")
		j1, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create journal: %v", err)
		}
		j1.Close()

		j2, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen journal: %v", err)
		}
		defer j2.Close()
	})
}

// TestJournalRecord tests recording and reading back a run.
func TestJournalRecord(t *testing.T) {
	t.Parallel()

	j, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	started := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	run := sampleRun("https://docs.example.com", started, 12)

	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	summaries, err := j.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("ListRuns() returned %d rows, want 1", len(summaries))
	}

	got := summaries[0]
	if got.BaseURL != "https://docs.example.com" {
		t.Errorf("BaseURL = %q, want %q", got.BaseURL, "https://docs.example.com")
	}
	if got.OutputDir != "docs" {
		t.Errorf("OutputDir = %q, want %q", got.OutputDir, "docs")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want %v", got.Duration, 1500*time.Millisecond)
	}
	if got.Saved != 12 {
		t.Errorf("Saved = %d, want 12", got.Saved)
	}
	if got.Recovered != 1 {
		t.Errorf("Recovered = %d, want 1", got.Recovered)
	}
	if got.Fetched != 14 {
		t.Errorf("Fetched = %d, want 14", got.Fetched)
	}
	if got.Failed != 1 {
		t.Errorf("Failed = %d, want 1", got.Failed)
	}
	if got.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", got.Skipped)
	}
	if got.Queued != 3 {
		t.Errorf("Queued = %d, want 3", got.Queued)
	}
	if got.Interrupted {
		t.Error("Interrupted = true, want false")
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want empty", got.Error)
	}

	full, err := j.GetRun(ctx, got.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if full == nil {
		t.Fatal("GetRun() returned nil for a recorded run")
	}
	if full.BaseURL != run.BaseURL {
		t.Errorf("full run BaseURL = %q, want %q", full.BaseURL, run.BaseURL)
	}
	if len(full.Pages) != 2 {
		t.Fatalf("full run has %d pages, want 2", len(full.Pages))
	}
	if full.Pages[0].File != "index.md" {
		t.Errorf("first page file = %q, want %q", full.Pages[0].File, "index.md")
	}
	if full.Pages[1].Status != model.PageFailed {
		t.Errorf("second page status = %v, want %v", full.Pages[1].Status, model.PageFailed)
	}
}

// TestJournalRecordInterrupted tests that interrupt and error state survive
// the round trip.
func TestJournalRecordInterrupted(t *testing.T) {
	t.Parallel()

	j, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	run := sampleRun("https://docs.example.com", time.Now().UTC(), 4)
	run.Interrupted = true
	run.ErrorMessage = "corpus write: no space left on device"

	if err := j.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	summaries, err := j.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("ListRuns() returned %d rows, want 1", len(summaries))
	}
	if !summaries[0].Interrupted {
		t.Error("Interrupted = false, want true")
	}
	if !strings.Contains(summaries[0].Error, "no space left") {
		t.Errorf("Error = %q, want the failure text", summaries[0].Error)
	}
}

// TestJournalListRuns tests ordering, filtering, and limiting.
func TestJournalListRuns(t *testing.T) {
	t.Parallel()

	j, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	runs := []*model.Run{
		sampleRun("https://docs.alpha.example.com", base, 5),
		sampleRun("https://docs.alpha.example.com", base.Add(2*time.Hour), 8),
		sampleRun("https://docs.beta.example.com", base.Add(time.Hour), 3),
	}
	for _, run := range runs {
		if err := j.Record(ctx, run); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	t.Run("all runs newest first", func(t *testing.T) {
		all, err := j.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("ListRuns() returned %d rows, want 3", len(all))
		}
		if all[0].Saved != 8 || all[1].Saved != 3 || all[2].Saved != 5 {
			t.Errorf("rows out of order: saved counts %d, %d, %d, want 8, 3, 5",
				all[0].Saved, all[1].Saved, all[2].Saved)
		}
	})

	t.Run("filter by site", func(t *testing.T) {
		alpha, err := j.ListRuns(ctx, "https://docs.alpha.example.com", 0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(alpha) != 2 {
			t.Fatalf("ListRuns() returned %d rows, want 2", len(alpha))
		}
		for _, summary := range alpha {
			if summary.BaseURL != "https://docs.alpha.example.com" {
				t.Errorf("unexpected BaseURL %q in filtered listing", summary.BaseURL)
			}
		}
	})

	t.Run("limit caps rows", func(t *testing.T) {
		limited, err := j.ListRuns(ctx, "", 1)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(limited) != 1 {
			t.Fatalf("ListRuns() returned %d rows, want 1", len(limited))
		}
		if limited[0].Saved != 8 {
			t.Errorf("limited listing returned saved = %d, want the newest run (8)", limited[0].Saved)
		}
	})
}

// TestJournalLatestRun tests latest-run retrieval per site.
func TestJournalLatestRun(t *testing.T) {
	t.Parallel()

	j, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	if err := j.Record(ctx, sampleRun("https://docs.example.com", base, 5)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := j.Record(ctx, sampleRun("https://docs.example.com", base.Add(time.Hour), 9)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	latest, err := j.LatestRun(ctx, "https://docs.example.com")
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest == nil {
		t.Fatal("LatestRun() returned nil for a crawled site")
	}
	if latest.Saved != 9 {
		t.Errorf("LatestRun() saved = %d, want 9", latest.Saved)
	}

	missing, err := j.LatestRun(ctx, "https://never.example.com")
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if missing != nil {
		t.Errorf("LatestRun() for an uncrawled site = %v, want nil", missing)
	}
}

// TestJournalGetRunUnknownID tests that unknown IDs return nil, nil.
func TestJournalGetRunUnknownID(t *testing.T) {
	t.Parallel()

	j, cleanup := setupTestJournal(t)
	defer cleanup()

	run, err := j.GetRun(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run != nil {
		t.Errorf("GetRun() for unknown ID = %v, want nil", run)
	}
}

// TestJournalListSites tests the distinct site listing.
func TestJournalListSites(t *testing.T) {
	t.Parallel()

	j, cleanup := setupTestJournal(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	for _, baseURL := range []string{
		"https://docs.zeta.example.com",
		"https://docs.alpha.example.com",
		"https://docs.zeta.example.com",
	} {
		if err := j.Record(ctx, sampleRun(baseURL, now, 1)); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	sites, err := j.ListSites(ctx)
	if err != nil {
		t.Fatalf("ListSites() error = %v", err)
	}
	want := []string{"https://docs.alpha.example.com", "https://docs.zeta.example.com"}
	if len(sites) != len(want) {
		t.Fatalf("ListSites() returned %d sites, want %d", len(sites), len(want))
	}
	for i, site := range want {
		if sites[i] != site {
			t.Errorf("sites[%d] = %q, want %q", i, sites[i], site)
		}
	}
}

// TestParseTimestamp tests the multi-format timestamp parser.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{"2026-08-20 10:30:00", true},
		{"2026-08-20T10:30:00Z", true},
		{"2026-08-20T10:30:00", true},
		{"2026-08-20T10:30:00+09:00", true},
		{"not a timestamp", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if tt.valid && got.IsZero() {
				t.Errorf("parseTimestamp(%q) returned zero time, want a parsed value", tt.input)
			}
			if !tt.valid && !got.IsZero() {
				t.Errorf("parseTimestamp(%q) = %v, want zero time", tt.input, got)
			}
		})
	}
}
