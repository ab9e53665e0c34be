package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// CSVExporter writes inventories as CSV with a header row.
//
// Design decision: We use gocarina/gocsv rather than encoding/csv because:
// 1. Column headers come from struct tags, next to the fields they name
// 2. Row structs marshal directly without hand-written []string conversion
// 3. The same tagged struct serves both the CSV and JSON exporters
type CSVExporter struct {
	output io.Writer
}

// NewCSVExporter creates a CSVExporter that writes to output.
func NewCSVExporter(output io.Writer) *CSVExporter {
	return &CSVExporter{output: output}
}

// Export writes the inventory rows as CSV. An empty inventory still
// produces the header row.
func (e *CSVExporter) Export(rows []InventoryRow) error {
	if err := gocsv.Marshal(&rows, e.output); err != nil {
		return fmt.Errorf("write csv inventory: %w", err)
	}
	return nil
}
