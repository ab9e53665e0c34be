package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoSeed is returned when no seed URL or URLs file is specified.
	// This error occurs when neither --urls-file nor a positional argument
	// provides a starting point for the crawl.
	ErrNoSeed = errors.New("no seed specified: provide a URL or use --urls-file")

	// ErrInvalidMaxPages is returned when the page budget is negative.
	// A negative budget is invalid; use 0 for an unlimited crawl.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative (0 means unlimited)")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// A negative depth is invalid; use 0 to follow links without limit.
	ErrInvalidMaxDepth = errors.New("invalid depth: must be non-negative (0 means unlimited)")

	// ErrInvalidMinContent is returned when the minimum content length is
	// negative. Use 0 to save every successfully rendered page.
	ErrInvalidMinContent = errors.New("invalid min content length: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not
	// positive. A concurrency of zero would mean no requests are made.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidRenderMode is returned when --render names an unknown engine.
	ErrInvalidRenderMode = errors.New(`invalid render mode: must be "http" or "chrome"`)

	// ErrInvalidReportFormat is returned when --format names an unknown
	// report writer.
	ErrInvalidReportFormat = errors.New(`invalid report format: must be "text", "markdown", or "json"`)
)
