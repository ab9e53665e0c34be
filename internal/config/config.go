package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for documentation sites of typical size and are
// deliberately conservative: a first run should finish quickly and politely,
// and users can widen every limit via CLI flags.
const (
	// DefaultOutputDir is where crawled documents are written.
	// A relative directory keeps each project's corpus next to the project
	// itself, which is where resumed crawls expect to find it.
	DefaultOutputDir = "docs"

	// DefaultMaxPages limits how many documents a single run may save.
	// 10 keeps a first, exploratory crawl short; real corpora are built by
	// raising the limit (or passing 0 for unlimited) and re-running, since
	// every run resumes from the documents already on disk.
	DefaultMaxPages = 10

	// DefaultMinContentLength is the minimum rendered-text length, in
	// characters, for a page to be worth saving. Pages at or below this
	// threshold are almost always redirect stubs, cookie walls, or empty
	// frames, and saving them would also expand their navigation links.
	DefaultMinContentLength = 100

	// DefaultTimeout is the per-request HTTP timeout. Documentation sites
	// are ordinary clearnet hosts, so 30 seconds is generous; anything
	// slower is effectively down for crawling purposes.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the delay between requests during crawling.
	// This is a politeness setting to avoid overwhelming the target site.
	// 1 second is conservative and respectful of server resources.
	// Can be adjusted via the --delay CLI flag.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultUserAgent identifies docshound in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify crawler traffic in their logs.
	DefaultUserAgent = "docshound/1.0 (+https://github.com/docshound/docshound)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultConcurrency is the number of concurrent requests for explicit
	// (non-recursive) fetches. 4 balances throughput with politeness; the
	// recursive crawl is always sequential and does not use this value.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "docshound"
)

// Render engine names accepted by the --render flag.
const (
	// RenderModeHTTP renders pages from the raw HTTP response body.
	RenderModeHTTP = "http"

	// RenderModeChrome renders pages in a headless Chrome instance,
	// falling back to plain HTTP when Chrome fails.
	RenderModeChrome = "chrome"
)

// Report format names accepted by the --format flag.
const (
	ReportFormatText     = "text"
	ReportFormatMarkdown = "markdown"
	ReportFormatJSON     = "json"
)

// Config holds all configuration options for docshound.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Seeds is the list of URLs to start crawling from.
	// Must contain at least one absolute http or https URL.
	Seeds []string

	// URLsFile is the path to a newline-separated file of seed URLs.
	// Blank lines and lines starting with '#' are ignored.
	// Seeds from the file are appended to any positional seeds.
	URLsFile string

	// OutputDir is the directory crawled documents are written to.
	// It doubles as the crawl's resume state: documents found here at
	// startup are treated as already visited.
	OutputDir string

	// MaxPages is the maximum number of documents to save in this run.
	// Documents recovered from a previous run count against the limit.
	// A value of 0 means unlimited.
	MaxPages int

	// MaxDepth is the maximum link depth to follow from the seeds.
	// Depth 1 means seeds plus the pages they link to directly.
	// A value of 0 means unlimited.
	MaxDepth int

	// MinContentLength is the minimum rendered-text length for a page
	// to be saved and have its links followed.
	MinContentLength int

	// Timeout is the HTTP timeout for each individual request.
	// This applies to single fetches, not the overall crawl duration.
	Timeout time.Duration

	// CrawlDelay is the delay between HTTP requests during crawling.
	// This is a "politeness" setting to avoid overwhelming the target
	// site. Lower values may cause rate limiting or service disruption.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps site operators identify crawler traffic.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// RenderMode selects the fetch engine: RenderModeHTTP or RenderModeChrome.
	RenderMode string

	// RespectRobots enables robots.txt checking before each fetch.
	// Disabled by default; documentation crawls target sites the user
	// already reads in a browser.
	RespectRobots bool

	// Concurrency is the number of concurrent requests for explicit
	// (non-recursive) fetches.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .docshound.yaml in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site configurations loaded from the config file.
	// This is populated by LoadConfigFile and used during crawling.
	SiteConfigs *File

	// ReportFile is the output file path for the run report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ReportFormat selects the report writer: ReportFormatText,
	// ReportFormatMarkdown, or ReportFormatJSON.
	ReportFormat string

	// JournalDir is the directory path for storing the run journal.
	// Defaults to the XDG data directory (~/.local/share/docshound on Linux).
	JournalDir string

	// NoJournal disables recording runs to the journal.
	// The journal is observational only; disabling it never affects
	// crawling or resumption.
	NoJournal bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, output dir).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:        DefaultOutputDir,
		MaxPages:         DefaultMaxPages,
		MinContentLength: DefaultMinContentLength,
		Timeout:          DefaultTimeout,
		CrawlDelay:       DefaultCrawlDelay,
		UserAgent:        DefaultUserAgent,
		MaxBodySize:      DefaultMaxBodySize,
		Concurrency:      DefaultConcurrency,
		RenderMode:       RenderModeHTTP,
		ReportFormat:     ReportFormatText,
		JournalDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for docshound.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/docshound
// On macOS: ~/Library/Application Support/docshound
// On Windows: %LOCALAPPDATA%\docshound
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docshound.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/docshound
// On macOS: ~/Library/Application Support/docshound
// On Windows: %APPDATA%\docshound
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for docshound.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/docshound
// On macOS: ~/Library/Caches/docshound
// On Windows: %LOCALAPPDATA%\docshound\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one seed, directly or via a URLs file
	if len(c.Seeds) == 0 && c.URLsFile == "" {
		return ErrNoSeed
	}

	// MaxPages of 0 means unlimited; negative is meaningless
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	// MaxDepth of 0 means unlimited; negative is meaningless
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	// MinContentLength of 0 saves everything; negative is meaningless
	if c.MinContentLength < 0 {
		return ErrInvalidMinContent
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// Concurrency must be positive; zero would mean no fetching
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// RenderMode must name a known engine
	if c.RenderMode != RenderModeHTTP && c.RenderMode != RenderModeChrome {
		return ErrInvalidRenderMode
	}

	// ReportFormat must name a known writer
	switch c.ReportFormat {
	case ReportFormatText, ReportFormatMarkdown, ReportFormatJSON:
	default:
		return ErrInvalidReportFormat
	}

	return nil
}
