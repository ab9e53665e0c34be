package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docshound/docshound/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type TextWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables the full per-page listing in the output.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) TextWriterOption {
	return func(w *TextWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the per-page listing.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *TextWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, run)

	// Summary
	w.writeSummary(&sb, run)

	// Failed pages
	w.writeFailures(&sb, run)

	// Full page listing in verbose mode
	if w.verbose {
		w.writePages(&sb, run)
	}

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *TextWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        DOCSHOUND CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:       %s\n", run.BaseURL))
	sb.WriteString(fmt.Sprintf("Output:     %s\n", run.OutputDir))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", formatDuration(run.Duration)))

	if run.Interrupted {
		sb.WriteString("Status:     INTERRUPTED (partial crawl, rerun to resume)\n")
	} else if run.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:     ERROR - %s\n", run.ErrorMessage))
	} else {
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the page count summary section.
func (w *TextWriter) writeSummary(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGE SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  NEW:        %d\n", newDocuments(run)))
	sb.WriteString(fmt.Sprintf("  RECOVERED:  %d\n", run.Recovered))
	sb.WriteString(fmt.Sprintf("  FAILED:     %d\n", run.Failed))
	sb.WriteString(fmt.Sprintf("  SKIPPED:    %d\n", run.Skipped))
	sb.WriteString(fmt.Sprintf("  QUEUED:     %d\n", run.Queued))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  CORPUS:     %d documents\n", run.Saved))
	sb.WriteString("\n")
}

// writeFailures writes the failed page section.
func (w *TextWriter) writeFailures(sb *strings.Builder, run *model.Run) {
	failed := failedPages(run)
	if len(failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failed) == 0 {
		sb.WriteString("  No failed pages\n")
	} else {
		for _, page := range failed {
			sb.WriteString(fmt.Sprintf("  [x] %s\n", page.URL))
			if page.Error != "" {
				sb.WriteString(fmt.Sprintf("      %s\n", page.Error))
			}
		}
	}
	sb.WriteString("\n")
}

// writePages writes the full per-page outcome listing.
func (w *TextWriter) writePages(sb *strings.Builder, run *model.Run) {
	if len(run.Pages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(run.Pages) == 0 {
		sb.WriteString("  No pages processed\n")
	} else {
		for _, page := range run.Pages {
			w.writePageLine(sb, page)
		}
	}
	sb.WriteString("\n")
}

// writePageLine writes one page outcome with its status marker.
func (w *TextWriter) writePageLine(sb *strings.Builder, page model.PageOutcome) {
	marker := w.getStatusMarker(page.Status)
	sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, page.URL))
	if page.File != "" {
		sb.WriteString(fmt.Sprintf("      -> %s\n", page.File))
	}
	if page.Error != "" {
		sb.WriteString(fmt.Sprintf("      %s\n", page.Error))
	}
}

// getStatusMarker returns a visual indicator for the page status.
func (w *TextWriter) getStatusMarker(status model.PageStatus) string {
	switch status {
	case model.PageSaved:
		return "+"
	case model.PageExisting:
		return "="
	case model.PageSkipped:
		return "-"
	case model.PageFailed:
		return "x"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *TextWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by docshound\n")
	sb.WriteString("https://github.com/docshound/docshound\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// formatDuration renders a duration with precision matched to its size.
// Sub-minute runs keep millisecond detail, longer runs round to seconds.
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Millisecond).String()
}
