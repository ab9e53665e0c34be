package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/docshound/docshound/internal/corpus"
)

// InventoryRow describes one corpus document for export.
// The csv tags double as column headers.
type InventoryRow struct {
	// File is the document filename inside the corpus directory.
	File string `csv:"file" json:"file"`

	// URL is the source URL recorded in the document header.
	URL string `csv:"url" json:"url"`

	// Size is the document file size in bytes.
	Size int64 `csv:"size_bytes" json:"size_bytes"`

	// Hash is the hex-encoded SHA-256 of the document file.
	Hash string `csv:"sha256" json:"sha256"`

	// Modified is the file modification time in RFC 3339 form.
	Modified string `csv:"modified" json:"modified"`
}

// Inventory builds export rows for every document in the corpus, in
// filename order. Files that do not parse as documents are skipped, the
// same way the crawler's recovery scan skips them.
func Inventory(store *corpus.Store) ([]InventoryRow, error) {
	entries, err := store.List()
	if err != nil {
		return nil, err
	}

	rows := make([]InventoryRow, 0, len(entries))
	for _, entry := range entries {
		data, err := os.ReadFile(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", entry.Name, err)
		}

		sourceURL, _, ok := corpus.Split(string(data))
		if !ok {
			continue
		}

		rows = append(rows, InventoryRow{
			File:     entry.Name,
			URL:      sourceURL,
			Size:     entry.Size,
			Hash:     hashBytes(data),
			Modified: entry.ModTime.UTC().Format(time.RFC3339),
		})
	}
	return rows, nil
}

// hashBytes returns the hex-encoded SHA-256 of data.
func hashBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
