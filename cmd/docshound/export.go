package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docshound/docshound/internal/config"
	"github.com/docshound/docshound/internal/corpus"
	"github.com/docshound/docshound/internal/export"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a corpus inventory as CSV or JSON",
		Long: `Export writes one row per document in the output directory: filename,
source URL, size, content hash, and modification time.

The hash covers the whole document file; comparing two exports by hash
shows which documents changed between them.

Examples:
  # CSV inventory of the default corpus, to stdout
  docshound export

  # JSON inventory of another corpus, into a file
  docshound export -o guides --format json --file inventory.json`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Corpus directory to inventory")
	cmd.Flags().String("format", export.FormatCSV,
		"Inventory format: csv or json")
	cmd.Flags().String("file", "",
		"Write the inventory to this file instead of stdout")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	outputDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	filePath, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}

	store := corpus.NewStore(outputDir)
	rows, err := export.Inventory(store)
	if err != nil {
		return fmt.Errorf("failed to build inventory: %w", err)
	}

	var output io.Writer = cmd.OutOrStdout()
	if filePath != "" {
		dir := filepath.Dir(filePath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	exporter, err := export.ForFormat(format, output)
	if err != nil {
		return err
	}
	if err := exporter.Export(rows); err != nil {
		return err
	}

	if filePath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d document(s) to %s\n", len(rows), filePath)
	}

	return nil
}
