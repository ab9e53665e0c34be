package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONExporter writes inventories as an indented JSON array.
type JSONExporter struct {
	output io.Writer
}

// NewJSONExporter creates a JSONExporter that writes to output.
func NewJSONExporter(output io.Writer) *JSONExporter {
	return &JSONExporter{output: output}
}

// Export writes the inventory rows as a JSON array. An empty inventory
// exports as [] rather than null so consumers always see an array.
func (e *JSONExporter) Export(rows []InventoryRow) error {
	if rows == nil {
		rows = []InventoryRow{}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json inventory: %w", err)
	}
	data = append(data, '\n')

	if _, err := e.output.Write(data); err != nil {
		return fmt.Errorf("write json inventory: %w", err)
	}
	return nil
}
