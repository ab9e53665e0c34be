package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docshound/docshound/internal/model"
)

// dbFileName is the journal file placed inside the journal directory.
const dbFileName = "docshound.db"

// sqliteTimeFormat is how timestamps are written to the database. It is
// SQLite's own default datetime rendering, so date functions work on it.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// Journal provides SQLite-based storage for crawl run history.
//
// Design decision: We use a single database file for all sites rather than
// one file per crawled site. This keeps cross-site history queries ("what
// did I crawl last week") trivial and gives the user one file to back up.
type Journal struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Journal behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default journal options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Journal in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned; the history command uses that to tell "no runs yet" apart from
// an empty table.
func Open(dir string, opts Options) (*Journal, error) {
	dbPath := filepath.Join(dir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("journal not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check journal path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw opens existing files
	// only, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite only supports one writer; a second connection buys nothing
	// for an append-mostly journal.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the location of the journal file.
func (j *Journal) Path() string {
	return j.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (j *Journal) createTables() error {
	schema := `
	-- One row per finished crawl run. The counter columns make history
	-- listings cheap; run_json holds the complete summary including
	-- per-page outcomes.
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		saved INTEGER NOT NULL,
		recovered INTEGER NOT NULL,
		fetched INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		queued INTEGER NOT NULL,
		interrupted INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_url ON runs(base_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

// Record appends one run to the journal. It satisfies the pipeline's
// RunRecorder interface.
func (j *Journal) Record(ctx context.Context, run *model.Run) error {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	query := `
	INSERT INTO runs (base_url, output_dir, started_at, duration_ms,
		saved, recovered, fetched, failed, skipped, queued, interrupted,
		error, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = j.db.ExecContext(ctx, query,
		run.BaseURL,
		run.OutputDir,
		run.StartedAt.UTC().Format(sqliteTimeFormat),
		run.Duration.Milliseconds(),
		run.Saved,
		run.Recovered,
		run.Fetched,
		run.Failed,
		run.Skipped,
		run.Queued,
		run.Interrupted,
		run.ErrorMessage,
		string(runJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// RunSummary contains the counter columns of one journal row. It is used
// for history listings without loading per-page outcomes.
type RunSummary struct {
	// ID is the unique identifier of the run in the journal.
	ID int64

	// BaseURL is the crawl's scope anchor.
	BaseURL string

	// OutputDir is the corpus directory the run wrote into.
	OutputDir string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration

	// Saved, Recovered, Fetched, Failed, Skipped, and Queued mirror the
	// run counters.
	Saved     int
	Recovered int
	Fetched   int
	Failed    int
	Skipped   int
	Queued    int

	// Interrupted reports whether the run was stopped by a signal.
	Interrupted bool

	// Error is the failure that stopped the run, empty for clean runs.
	Error string
}

// ListRuns returns run summaries, newest first. A non-empty baseURL
// restricts the listing to one site; a positive limit caps the row count.
func (j *Journal) ListRuns(ctx context.Context, baseURL string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, base_url, output_dir, started_at, duration_ms,
		saved, recovered, fetched, failed, skipped, queued, interrupted, error
	FROM runs
	`
	args := make([]any, 0, 2)

	if baseURL != "" {
		query += " WHERE base_url = ?"
		args = append(args, baseURL)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var summary RunSummary
		var startedAt string
		var durationMS int64
		var errText sql.NullString

		err := rows.Scan(
			&summary.ID,
			&summary.BaseURL,
			&summary.OutputDir,
			&startedAt,
			&durationMS,
			&summary.Saved,
			&summary.Recovered,
			&summary.Fetched,
			&summary.Failed,
			&summary.Skipped,
			&summary.Queued,
			&summary.Interrupted,
			&errText,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}

		summary.StartedAt = parseTimestamp(startedAt)
		summary.Duration = time.Duration(durationMS) * time.Millisecond
		summary.Error = errText.String
		results = append(results, summary)
	}

	return results, rows.Err()
}

// GetRun retrieves a complete run summary, including per-page outcomes,
// by its journal ID. Returns nil without error when the ID is unknown.
func (j *Journal) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	query := `
	SELECT run_json FROM runs
	WHERE id = ?
	`

	var runJSON string
	err := j.db.QueryRowContext(ctx, query, id).Scan(&runJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}

	return &run, nil
}

// LatestRun retrieves the most recent run for a site. Returns nil without
// error when the site has never been crawled.
func (j *Journal) LatestRun(ctx context.Context, baseURL string) (*model.Run, error) {
	query := `
	SELECT run_json FROM runs
	WHERE base_url = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`

	var runJSON string
	err := j.db.QueryRowContext(ctx, query, baseURL).Scan(&runJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}

	return &run, nil
}

// ListSites returns every base URL present in the journal, sorted.
func (j *Journal) ListSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT base_url FROM runs
	ORDER BY base_url
	`

	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
