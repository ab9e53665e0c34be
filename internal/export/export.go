package export

import (
	"errors"
	"io"
)

// Export format names accepted by ForFormat.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned when ForFormat gets a format name it does
// not recognize.
var ErrUnknownFormat = errors.New(`unknown export format: must be "csv" or "json"`)

// Exporter writes a corpus inventory to a destination.
//
// Design decision: Exporters hold their destination and take rows, mirroring
// the report writers, so the export command treats stdout and files
// uniformly.
type Exporter interface {
	// Export writes the inventory rows to the configured destination.
	Export(rows []InventoryRow) error
}

// ForFormat returns the Exporter for a format name.
func ForFormat(format string, output io.Writer) (Exporter, error) {
	switch format {
	case FormatCSV:
		return NewCSVExporter(output), nil
	case FormatJSON:
		return NewJSONExporter(output), nil
	default:
		return nil, ErrUnknownFormat
	}
}
