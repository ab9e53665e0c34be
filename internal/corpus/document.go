package corpus

import (
	"net/url"
	"strings"
)

const (
	// Separator replaces path separators when deriving a filename from a URL.
	Separator = "_"

	// DefaultName is used when a URL path derives an empty filename
	// (for example the site root "/").
	DefaultName = "index"

	// Extension is appended to derived filenames that do not already end
	// with it.
	Extension = ".md"

	// headerPrefix starts the first line of every document.
	headerPrefix = "# "
)

// FileName derives the corpus filename for a source URL.
//
// Only the path component participates: separators become underscores,
// leading and trailing underscores are stripped, an empty result falls back
// to DefaultName, and Extension is appended if missing. Malformed URLs are
// treated as having an empty path.
func FileName(sourceURL string) string {
	var path string
	if u, err := url.Parse(sourceURL); err == nil {
		path = u.Path
	}

	name := strings.Trim(strings.ReplaceAll(path, "/", Separator), Separator)
	if name == "" {
		name = DefaultName
	}
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return name
}

// Header returns the header line for a source URL, without a trailing newline.
func Header(sourceURL string) string {
	return headerPrefix + sourceURL
}

// ParseHeader recovers the source URL from a document's first line.
// The boolean is false when the line does not follow the header convention.
// For any URL, ParseHeader(Header(url)) returns url byte-for-byte.
func ParseHeader(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, headerPrefix)
	if !ok || strings.TrimSpace(rest) == "" {
		return "", false
	}
	return rest, true
}

// Render produces the full document content for a source URL and body:
// header line, blank line, body verbatim.
func Render(sourceURL, body string) string {
	return Header(sourceURL) + "\n\n" + body
}

// Split separates raw document content into its header URL and body.
// The boolean is false when the first line is not a valid header; the body
// is returned verbatim with the single blank separator line removed.
func Split(content string) (sourceURL, body string, ok bool) {
	line, rest, _ := strings.Cut(content, "\n")
	line = strings.TrimSuffix(line, "\r")

	sourceURL, ok = ParseHeader(line)
	if !ok {
		return "", "", false
	}

	// Drop the single blank line between header and body, if present.
	if after, found := strings.CutPrefix(rest, "\r\n"); found {
		rest = after
	} else if after, found := strings.CutPrefix(rest, "\n"); found {
		rest = after
	}
	return sourceURL, rest, true
}
