package main

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/journal"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the documents in a corpus directory",
		Long: `Status reads the output directory and reports what the crawl has collected
so far: documents and bytes per site, and when the journal last saw a run
for each site.

The summary comes from the files themselves, so it is accurate even for a
corpus produced by an interrupted crawl.

Examples:
  # Summarize the default output directory
  docshound status

  # Summarize another corpus
  docshound status -o guides`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Corpus directory to summarize")

	return cmd
}

// siteSummary aggregates the corpus documents of one host.
type siteSummary struct {
	documents int
	bytes     int64
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	store := corpus.NewStore(outputDir)
	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to read corpus: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No documents in %s\n", outputDir)
		fmt.Fprintln(out, "\nUse 'docshound crawl <url>' to start a corpus.")
		return nil
	}

	sites := make(map[string]*siteSummary)
	var totalBytes int64
	documents := 0

	for _, entry := range entries {
		sourceURL, _, ok, err := store.ReadDocument(entry.Path)
		if err != nil || !ok {
			continue
		}
		u, err := url.Parse(sourceURL)
		if err != nil || u.Host == "" {
			continue
		}

		summary := sites[u.Host]
		if summary == nil {
			summary = &siteSummary{}
			sites[u.Host] = summary
		}
		summary.documents++
		summary.bytes += entry.Size
		totalBytes += entry.Size
		documents++
	}

	lastRuns := lastCrawlTimes(context.Background())

	hosts := make([]string, 0, len(sites))
	for host := range sites {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	tbl := table.New("Site", "Documents", "Size", "Last crawl").WithWriter(out)
	for _, host := range hosts {
		lastRun := lastRuns[host]
		if lastRun == "" {
			lastRun = "-"
		}
		tbl.AddRow(host, sites[host].documents, formatBytes(sites[host].bytes), lastRun)
	}
	tbl.Print()

	fmt.Fprintf(out, "\n%d document(s), %s in %s\n", documents, formatBytes(totalBytes), outputDir)

	return nil
}

// lastCrawlTimes maps hosts to the start time of their latest journal run.
// The journal is optional for status: when it is missing or unreadable the
// map stays empty and the listing shows "-" instead.
func lastCrawlTimes(ctx context.Context) map[string]string {
	times := make(map[string]string)

	// CreateIfNotExists is off; asking for status must not create a journal.
	j, err := journal.Open(config.XDGDataDir(), journal.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return times
	}
	defer j.Close()

	sites, err := j.ListSites(ctx)
	if err != nil {
		return times
	}

	for _, site := range sites {
		u, err := url.Parse(site)
		if err != nil || u.Host == "" {
			continue
		}
		run, err := j.LatestRun(ctx, site)
		if err != nil || run == nil {
			continue
		}
		times[u.Host] = run.StartedAt.Format("2006-01-02 15:04")
	}

	return times
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
