package model

import "time"

// PageStatus classifies the outcome of processing one URL.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides human-readable
// output for logs and reports.
type PageStatus int

const (
	// PageSaved means a new document was written for the URL.
	PageSaved PageStatus = iota

	// PageExisting means a document already existed; the page was fetched
	// for link discovery only and not re-saved.
	PageExisting

	// PageSkipped means the page was fetched but not saved, typically
	// because the rendered content was below the minimum length.
	PageSkipped

	// PageFailed means the fetch itself failed.
	PageFailed
)

// String returns a human-readable representation of the page status.
func (s PageStatus) String() string {
	switch s {
	case PageSaved:
		return "saved"
	case PageExisting:
		return "existing"
	case PageSkipped:
		return "skipped"
	case PageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageOutcome records what happened to one URL during a run.
type PageOutcome struct {
	// URL is the canonical page URL.
	URL string `json:"url"`

	// File is the corpus filename, set only when Status is PageSaved or
	// PageExisting.
	File string `json:"file,omitempty"`

	// Status classifies the outcome.
	Status PageStatus `json:"status"`

	// Error holds the failure text when Status is PageFailed.
	Error string `json:"error,omitempty"`
}

// Run summarizes one crawl invocation for reports and the journal.
//
// Design decision: A single flat struct rather than nested sub-structs keeps
// JSON serialization and SQLite row mapping trivial; every consumer (report
// writers, journal, history listing) wants the same handful of fields.
type Run struct {
	// BaseURL is the crawl's scope anchor (the first seed).
	BaseURL string `json:"base_url"`

	// Seeds are all caller-supplied starting URLs.
	Seeds []string `json:"seeds,omitempty"`

	// OutputDir is the corpus directory the run wrote into.
	OutputDir string `json:"output_dir"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	// Saved counts documents on disk at the end of the run, including
	// documents recovered from earlier runs at startup.
	Saved int `json:"saved"`

	// Recovered counts documents that already existed at startup.
	Recovered int `json:"recovered"`

	// Fetched counts fetch attempts made this run.
	Fetched int `json:"fetched"`

	// Failed counts fetch attempts that errored.
	Failed int `json:"failed"`

	// Skipped counts pages fetched but not saved for lack of content.
	Skipped int `json:"skipped"`

	// Queued is the frontier length when the run stopped; non-zero means
	// the page budget or an interrupt stopped the crawl early.
	Queued int `json:"queued"`

	// Interrupted reports whether the run was stopped by a signal.
	Interrupted bool `json:"interrupted"`

	// Phases lists the pipeline phases that executed, in order.
	Phases []string `json:"phases,omitempty"`

	// Error is the failure that stopped the run, nil for clean runs.
	// Not serialized; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the human-readable form of Error.
	ErrorMessage string `json:"error,omitempty"`

	// Pages are per-URL outcomes, in processing order.
	Pages []PageOutcome `json:"pages,omitempty"`
}
