package crawler

import "sync"

// Stats carries the progress counters for one crawl run.
//
// saved counts documents on disk: it starts at the number of documents
// recovered from the corpus and grows by one per new save. The mutex also
// serializes the save-versus-cancel decision in the worker: the cancel
// re-check, the document write, and the counter increment happen as one
// exclusive section, which is what makes the design safe to extend to
// multiple workers without duplicate saves.
type Stats struct {
	mu sync.Mutex

	saved       int
	recovered   int
	fetched     int
	failed      int
	skipped     int
	interrupted bool
}

// NewStats returns Stats for a run that starts with recovered documents
// already in the corpus.
func NewStats(recovered int) *Stats {
	return &Stats{saved: recovered, recovered: recovered}
}

// SetRecovered replaces the recovered-document count. Callers that create
// Stats before scanning the corpus use this once the scan completes; the
// saved count is rebased so recovered documents keep counting toward it.
func (s *Stats) SetRecovered(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved += n - s.recovered
	s.recovered = n
}

// Saved returns the current count of documents on disk.
func (s *Stats) Saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// MarkInterrupted records an interruption request. The flag is monotonic;
// marking twice is harmless.
func (s *Stats) MarkInterrupted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interrupted = true
}

// Interrupted reports whether the run was interrupted.
func (s *Stats) Interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}

// addFetched counts one fetch attempt.
func (s *Stats) addFetched() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched++
}

// addFailed counts one failed fetch.
func (s *Stats) addFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// addSkipped counts one page fetched but not saved for lack of content.
func (s *Stats) addSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// Totals is a consistent snapshot of all counters.
type Totals struct {
	// Saved is the number of documents on disk, recovered plus new.
	Saved int

	// Recovered is the number of documents found at startup.
	Recovered int

	// Fetched is the number of fetch attempts made this run.
	Fetched int

	// Failed is the number of fetch attempts that errored.
	Failed int

	// Skipped is the number of pages fetched but not saved.
	Skipped int

	// Interrupted reports whether the run was interrupted.
	Interrupted bool
}

// Totals returns a snapshot taken under the lock.
func (s *Stats) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Totals{
		Saved:       s.saved,
		Recovered:   s.recovered,
		Fetched:     s.fetched,
		Failed:      s.failed,
		Skipped:     s.skipped,
		Interrupted: s.interrupted,
	}
}
