package main

import (
	"context"
	"fmt"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/journal"
	"github.com/docshound/docshound/internal/report"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command reads past run records from the journal.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List past crawl runs from the journal",
		Long: `History lists the runs recorded in the journal, newest first.

Every crawl records a run unless it was started with --no-journal. The
journal is informational only: deleting it, or running without it, changes
nothing about crawling or resumption, which depend on the corpus alone.

Examples:
  # The most recent runs across all sites
  docshound history

  # Runs for one site
  docshound history https://docs.example.com

  # Sites the journal knows about
  docshound history --sites

  # One run in full, with per-page outcomes
  docshound history --run 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().Bool("sites", false,
		"List the journal's sites instead of runs")
	cmd.Flags().Int64("run", 0,
		"Show one run in full by its ID (use the listing to find IDs)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("sites")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// CreateIfNotExists is off; a history query must not create a journal.
	j, err := journal.Open(config.XDGDataDir(), journal.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	ctx := context.Background()

	if listSites {
		return listJournalSites(ctx, cmd, j)
	}
	if runID > 0 {
		return showJournalRun(ctx, cmd, j, runID)
	}

	baseURL := ""
	if len(args) > 0 {
		baseURL = args[0]
	}
	return listJournalRuns(ctx, cmd, j, baseURL, limit)
}

// listJournalSites lists every site with at least one recorded run.
func listJournalSites(ctx context.Context, cmd *cobra.Command, j *journal.Journal) error {
	sites, err := j.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(sites) == 0 {
		fmt.Fprintln(out, "No runs recorded in the journal.")
		fmt.Fprintln(out, "\nUse 'docshound crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(out, "Crawled sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(out, "  • %s\n", site)
	}
	fmt.Fprintln(out, "\nUse 'docshound history <url>' to list one site's runs.")

	return nil
}

// listJournalRuns prints a table of run summaries, newest first.
func listJournalRuns(ctx context.Context, cmd *cobra.Command, j *journal.Journal, baseURL string, limit int) error {
	runs, err := j.ListRuns(ctx, baseURL, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		if baseURL != "" {
			fmt.Fprintf(out, "No runs recorded for %s\n", baseURL)
		} else {
			fmt.Fprintln(out, "No runs recorded in the journal.")
		}
		fmt.Fprintln(out, "\nUse 'docshound crawl <url>' to crawl a site.")
		return nil
	}

	tbl := table.New("ID", "Started", "Site", "New", "Failed", "Queued", "Status").WithWriter(out)
	for _, r := range runs {
		tbl.AddRow(
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04"),
			r.BaseURL,
			newDocumentCount(r),
			r.Failed,
			r.Queued,
			runStatusWord(r),
		)
	}
	tbl.Print()

	fmt.Fprintln(out, "\nUse 'docshound history --run <id>' to show one run in full.")

	return nil
}

// showJournalRun prints one run with its per-page outcomes, reusing the
// verbose text report writer.
func showJournalRun(ctx context.Context, cmd *cobra.Command, j *journal.Journal, id int64) error {
	run, err := j.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run with ID %d in the journal", id)
	}

	writer := report.NewTextWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	_, err = writer.Write(run)
	return err
}

// newDocumentCount is how many documents the run added beyond what it
// recovered at startup.
func newDocumentCount(r journal.RunSummary) int {
	n := r.Saved - r.Recovered
	if n < 0 {
		return 0
	}
	return n
}

// runStatusWord renders one word for how a run ended.
func runStatusWord(r journal.RunSummary) string {
	switch {
	case r.Error != "":
		return "error"
	case r.Interrupted:
		return "interrupted"
	default:
		return "ok"
	}
}
