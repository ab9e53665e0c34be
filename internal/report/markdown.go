package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/docshound/docshound/internal/model"
)

// MarkdownWriter outputs run reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, run)

	// Summary
	w.writeSummary(md, run)

	// Failed pages
	w.writeFailures(md, run)

	// Corpus contents
	w.writeCorpus(md, run)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Crawl Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + run.BaseURL + "`"},
			{"Output Directory", "`" + run.OutputDir + "`"},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", formatDuration(run.Duration)},
			{"Status", w.getStatusText(run)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on run state.
func (w *MarkdownWriter) getStatusText(run *model.Run) string {
	if run.Interrupted {
		return "⚠️ Interrupted (partial crawl)"
	}
	if run.ErrorMessage != "" {
		return "❌ Error - " + run.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the page count summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.Run) {
	md.H2("Page Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 New", strconv.Itoa(newDocuments(run))},
			{"🔵 Recovered", strconv.Itoa(run.Recovered)},
			{"🔴 Failed", strconv.Itoa(run.Failed)},
			{"🟡 Skipped", strconv.Itoa(run.Skipped)},
			{"⚪ Queued", strconv.Itoa(run.Queued)},
			{"**Corpus**", "**" + strconv.Itoa(run.Saved) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if any page was processed
	if newDocuments(run)+run.Recovered+run.Failed+run.Skipped > 0 {
		w.writePieChart(md, run)
	}

	// Add alert based on run state
	w.writeAlert(md, run)
}

// writePieChart writes a mermaid pie chart for the outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if n := newDocuments(run); n > 0 {
		chart.LabelAndIntValue("New", uint64(n))
	}
	if run.Recovered > 0 {
		chart.LabelAndIntValue("Recovered", uint64(run.Recovered))
	}
	if run.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(run.Failed))
	}
	if run.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(run.Skipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, run *model.Run) {
	switch {
	case run.ErrorMessage != "":
		md.Cautionf(
			"The crawl stopped on an error: %s",
			run.ErrorMessage,
		)
	case run.Interrupted:
		md.Warningf(
			"The crawl was interrupted with %d page(s) still queued. Running the same command again resumes from the saved corpus.",
			run.Queued,
		)
	case run.Failed > 0:
		md.Importantf(
			"%d page(s) failed to fetch. They are not in the corpus; a later run will retry them.",
			run.Failed,
		)
	case run.Queued > 0:
		md.Note(fmt.Sprintf(
			"The page budget stopped the crawl with %d page(s) still queued.",
			run.Queued,
		))
	default:
		md.Tip("Every reachable page is in the corpus.")
	}
	md.PlainText("")
}

// writeFailures writes the failed page section.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.Run) {
	md.H2("Failed Pages")
	md.PlainText("")

	failed := failedPages(run)
	if len(failed) == 0 {
		md.PlainText("No failed pages.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(failed))
	for i, page := range failed {
		errText := page.Error
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			truncateString(page.URL, 60),
			truncateString(errText, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCorpus writes the corpus contents section with the saved page
// listing folded into a details block.
func (w *MarkdownWriter) writeCorpus(md *markdown.Markdown, run *model.Run) {
	md.H2("Corpus")
	md.PlainText("")
	md.PlainTextf("%d documents in `%s`.", run.Saved, run.OutputDir)
	md.PlainText("")

	var lines []string
	for _, page := range run.Pages {
		if page.Status != model.PageSaved && page.Status != model.PageExisting {
			continue
		}
		lines = append(lines, fmt.Sprintf("- `%s` <- %s", page.File, page.URL))
	}
	if len(lines) > 0 {
		md.Details("Saved pages", strings.Join(lines, "\n"))
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [docshound](https://github.com/docshound/docshound)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
