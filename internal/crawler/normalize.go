package crawler

import (
	"net/url"
	"strings"
)

// Normalize turns a link candidate found on a page into canonical absolute
// form. The boolean is false when the candidate cannot become a crawlable
// URL.
//
// A candidate that already carries a scheme is returned unchanged, even for
// non-http schemes; rejecting those is the Scope filter's job. Relative
// candidates are resolved against base per RFC 3986. A resolved result must
// be http or https.
//
// Malformed input never produces an error, only a rejection.
func Normalize(candidate string, base *url.URL) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "" {
		return candidate, true
	}

	if base == nil {
		return "", false
	}
	resolved := base.ResolveReference(parsed).String()
	if !strings.HasPrefix(resolved, "http://") && !strings.HasPrefix(resolved, "https://") {
		return "", false
	}
	return resolved, true
}
