package crawler

import (
	"fmt"
	"net/url"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/docshound/docshound/internal/corpus"
)

// Resume is crawl state reconstructed from an existing corpus.
//
// Visited lists the source URLs of every recovered document, in corpus file
// order (lexical by filename). Candidates lists in-scope links re-extracted
// from the saved bodies that have no document of their own yet, in
// first-discovery order. Candidates never overlap Visited.
type Resume struct {
	Visited    []string
	Candidates []string
}

// Restore scans a corpus directory and rebuilds the crawl state a finished
// or interrupted run left behind.
//
// Every document whose first line parses as a header contributes its source
// URL to Visited; files without a valid header are silently skipped, as are
// files that cannot be read. The saved bodies are then re-scanned for
// markdown links so that pages reachable only through a previous run's
// documents are queued again without re-fetching the documents themselves.
//
// The two passes matter: a link pointing at a URL whose own document appears
// later in file order must not become a candidate.
func Restore(store *corpus.Store, scope *Scope) (*Resume, error) {
	entries, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("restore corpus state: %w", err)
	}

	type document struct {
		sourceURL string
		body      string
	}

	resume := &Resume{}
	recorded := mapset.NewThreadUnsafeSet[string]()
	var docs []document

	for _, entry := range entries {
		sourceURL, body, ok, err := store.ReadDocument(entry.Path)
		if err != nil || !ok {
			continue
		}
		if recorded.Contains(sourceURL) {
			continue
		}
		recorded.Add(sourceURL)
		resume.Visited = append(resume.Visited, sourceURL)
		docs = append(docs, document{sourceURL: sourceURL, body: body})
	}

	for _, doc := range docs {
		base, err := url.Parse(doc.sourceURL)
		if err != nil {
			continue
		}
		for _, raw := range TextLinks(doc.body) {
			normalized, ok := Normalize(raw, base)
			if !ok || !scope.Allows(normalized) {
				continue
			}
			if recorded.Contains(normalized) {
				continue
			}
			recorded.Add(normalized)
			resume.Candidates = append(resume.Candidates, normalized)
		}
	}

	return resume, nil
}

// Seed primes a fresh frontier with restored state and explicit seeds.
//
// Recovered URLs become visited without queuing. Re-discovered candidates
// are queued first at depth 1 (their true depth is unknowable from a flat
// corpus), then explicit seeds at depth 0, skipping any already seen. File
// order is primary and seed order secondary, which is what governs crawl
// order on resumed runs.
func (r *Resume) Seed(frontier *Frontier, seeds []string) {
	for _, u := range r.Visited {
		frontier.MarkVisited(u)
	}
	for _, u := range r.Candidates {
		frontier.Offer(u, 1)
	}
	for _, u := range seeds {
		frontier.Offer(u, 0)
	}
}
