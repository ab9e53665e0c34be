package crawler

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// queueItem is one pending fetch in the frontier queue.
type queueItem struct {
	url   string
	depth int
}

// Frontier holds the mutable state of one crawl run: a FIFO queue of URLs
// awaiting a fetch, the set of URLs ever seen (queued or visited), and the
// set of URLs whose fetch has been attempted.
//
// Invariants: visited is a subset of seen, every queued URL is in seen, and
// a URL enters the queue at most once for the lifetime of the run. FIFO
// order is what makes the crawl breadth-first.
//
// All operations are safe for concurrent use.
//
// Design decision: The sets are thread-unsafe mapset instances guarded by
// the frontier's own mutex because queue and set updates must be atomic
// together; per-set locking would still leave offer() as a racy
// check-then-act.
type Frontier struct {
	mu      sync.Mutex
	queue   []queueItem
	seen    mapset.Set[string]
	visited mapset.Set[string]
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen:    mapset.NewThreadUnsafeSet[string](),
		visited: mapset.NewThreadUnsafeSet[string](),
	}
}

// Offer queues a URL at the given depth unless it has been seen before.
// It reports whether the URL was actually queued.
func (f *Frontier) Offer(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.Contains(url) {
		return false
	}
	f.seen.Add(url)
	f.queue = append(f.queue, queueItem{url: url, depth: depth})
	return true
}

// Take removes and returns the queue head. The boolean is false when the
// queue is empty.
func (f *Frontier) Take() (url string, depth int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", 0, false
	}
	item := f.queue[0]
	f.queue = f.queue[1:]
	return item.url, item.depth, true
}

// MarkVisited records a fetch attempt for the URL. It also marks the URL
// seen, so restoring a corpus can mark recovered URLs directly without
// queuing them.
func (f *Frontier) MarkVisited(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen.Add(url)
	f.visited.Add(url)
}

// Visited reports whether a fetch was already attempted for the URL.
func (f *Frontier) Visited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.Contains(url)
}

// Seen reports whether the URL was ever queued or visited.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Contains(url)
}

// Len returns the number of URLs waiting in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the number of URLs whose fetch has been attempted.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited.Cardinality()
}
