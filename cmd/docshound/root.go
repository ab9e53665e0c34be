// Package main provides the entry point for the docshound CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docshound.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docshound",
		Short: "Crawl documentation sites into folders of markdown files",
		Long: `Docshound crawls a documentation site breadth-first and saves every page
as a markdown file in a flat output directory.

The output directory doubles as the crawl's memory: documents found there at
startup count as already visited, so interrupting a crawl and running the same
command again resumes where the previous run stopped. Raise --max-pages and
re-run to grow a corpus incrementally.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
