package report

import (
	"io"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/model"
)

// Writer defines the interface for run report output.
// Implementations write crawl results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// ForFormat returns the Writer for a report format name as validated by
// the config package.
func ForFormat(format string, output io.Writer) (Writer, error) {
	switch format {
	case config.ReportFormatText:
		return NewTextWriter(output), nil
	case config.ReportFormatMarkdown:
		return NewMarkdownWriter(output), nil
	case config.ReportFormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, config.ErrInvalidReportFormat
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write runs, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// failedPages returns the page outcomes that ended in a fetch failure.
func failedPages(run *model.Run) []model.PageOutcome {
	var failed []model.PageOutcome
	for _, page := range run.Pages {
		if page.Status == model.PageFailed {
			failed = append(failed, page)
		}
	}
	return failed
}

// newDocuments returns the count of documents written for the first time
// during this run. Saved includes documents recovered from earlier runs,
// so the recovered count is subtracted back out.
func newDocuments(run *model.Run) int {
	n := run.Saved - run.Recovered
	if n < 0 {
		return 0
	}
	return n
}
