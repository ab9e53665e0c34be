package crawler

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// inlineLink matches the markdown inline link pattern "[label](target)".
// The target group deliberately stops at the closing parenthesis; optional
// titles after whitespace are trimmed by the caller.
var inlineLink = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)

// HTMLLinks extracts every anchor href from raw markup, in document order,
// deduplicated, with surrounding whitespace trimmed but otherwise literal.
// Malformed markup yields a best-effort partial result, never an error.
func HTMLLinks(markup string) []string {
	if markup == "" {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := strings.TrimSpace(attrValue(n, "href")); href != "" {
				links = append(links, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return dedupe(links)
}

// TextLinks extracts link targets from rendered markdown text using the
// inline "[label](target)" pattern. Targets are literal and unnormalized;
// a markdown title following the target is dropped.
func TextLinks(text string) []string {
	if text == "" {
		return nil
	}

	var links []string
	for _, m := range inlineLink.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if i := strings.IndexAny(target, " \t"); i >= 0 {
			target = target[:i]
		}
		if target != "" {
			links = append(links, target)
		}
	}
	return dedupe(links)
}

// Links unions both extraction modes over whatever content is available.
// Output is raw link strings; normalization and scope filtering are the
// caller's job regardless of which mode produced a string.
func Links(markup, text string) []string {
	return dedupe(append(HTMLLinks(markup), TextLinks(text)...))
}

// attrValue returns the value of the named attribute, or empty.
func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

// dedupe removes duplicates preserving first-occurrence order.
func dedupe(links []string) []string {
	if len(links) < 2 {
		return links
	}
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
