package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store reads and writes documents in a single corpus directory.
//
// Store does no locking between processes. Two crawls writing to the same
// directory at once is undefined behavior.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created lazily on
// the first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the corpus directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path a source URL maps to.
func (s *Store) Path(sourceURL string) string {
	return filepath.Join(s.dir, FileName(sourceURL))
}

// Exists reports whether a document for the source URL is already on disk.
func (s *Store) Exists(sourceURL string) bool {
	info, err := os.Stat(s.Path(sourceURL))
	return err == nil && !info.IsDir()
}

// Write persists a document for the source URL and returns its filename.
// An existing file for the same name is overwritten; callers that need
// save-once semantics check Exists first.
func (s *Store) Write(sourceURL, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create corpus directory: %w", err)
	}

	name := FileName(sourceURL)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(Render(sourceURL, body)), 0o644); err != nil {
		return "", fmt.Errorf("write document %s: %w", name, err)
	}
	return name, nil
}

// Entry describes one document file in the corpus.
type Entry struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List enumerates the document files in the corpus in lexical filename order.
// A missing corpus directory yields an empty list, not an error.
func (s *Store) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var entries []Entry
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), Extension) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:    d.Name(),
			Path:    filepath.Join(s.dir, d.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

// ReadDocument reads one document file and splits it into source URL and
// body. The boolean is false when the file does not start with a valid
// header line; such files are not corpus documents and the caller skips
// them.
func (s *Store) ReadDocument(path string) (sourceURL, body string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", false, fmt.Errorf("read document %s: %w", filepath.Base(path), err)
	}
	sourceURL, body, ok = Split(string(data))
	return sourceURL, body, ok, nil
}
