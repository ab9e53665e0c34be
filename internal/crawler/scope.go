package crawler

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// blockedExtensions are path suffixes the crawl never follows. They mark
// binary assets and style/script resources, none of which render to useful
// text. Matched case-insensitively against the URL path only, so a query
// string mentioning ".pdf" does not cause a false positive.
var blockedExtensions = []string{
	".pdf", ".zip", ".png", ".jpg", ".jpeg", ".gif",
	".svg", ".css", ".js", ".ico", ".webp",
}

// Scope decides which normalized URLs belong to a crawl.
//
// The fixed rules are conservative by intent: skipping a valid page is
// cheaper than fetching a binary asset. Optional ignore/follow glob patterns
// from per-site configuration narrow the scope further; they can never widen
// it past the fixed rules.
type Scope struct {
	// host is the crawl's anchor host, compared case-insensitively.
	// Hostname comparison is case-insensitive per RFC 4343; URLs that
	// differ only in host case are the same site.
	host string

	// ignorePatterns are path globs to skip (e.g. "/changelog/*").
	ignorePatterns []string

	// followPatterns, when non-empty, restrict the crawl to paths matching
	// at least one of them.
	followPatterns []string
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithIgnorePatterns sets path globs to skip during crawling.
func WithIgnorePatterns(patterns []string) ScopeOption {
	return func(s *Scope) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets path globs that discovered URLs must match.
// Empty means all paths are allowed, subject to the ignore patterns.
func WithFollowPatterns(patterns []string) ScopeOption {
	return func(s *Scope) {
		s.followPatterns = patterns
	}
}

// NewScope builds the scope for a crawl anchored at baseURL.
// The base must be an absolute http or https URL.
func NewScope(baseURL string, opts ...ScopeOption) (*Scope, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute http or https", baseURL)
	}

	s := &Scope{host: u.Host}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Allows reports whether a normalized URL is in-scope for the crawl.
//
// Rejections, in order: script and mail pseudo-links anywhere in the URL,
// unparseable URLs, non-http schemes, foreign hosts, empty or bare-root
// paths (including bare fragment forms like "/#top"), blocked asset
// extensions, and finally the configured ignore/follow patterns.
func (s *Scope) Allows(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "javascript:") || strings.Contains(lower, "mailto:") {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !strings.EqualFold(u.Host, s.host) {
		return false
	}
	if u.Path == "" || u.Path == "/" {
		return false
	}

	pathLower := strings.ToLower(u.Path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return false
		}
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, u.Path) {
			return false
		}
	}
	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, u.Path) {
				return true
			}
		}
		return false
	}
	return true
}

// Host returns the scope's anchor host.
func (s *Scope) Host() string {
	return s.host
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/internal/*" matches "/internal/api", "/internal/api/v2"
//   - "*.html" matches "/guide/intro.html"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if path == "" {
		path = "/"
	}

	// Prefix patterns like "/internal/*" match the whole subtree, which
	// filepath.Match alone would not (it stops at separators).
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.html" match anywhere in the tree.
	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	// Bare filename patterns are also tried against the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}
