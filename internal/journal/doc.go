// Package journal provides SQLite-based history for crawl runs.
//
// Every finished run is appended as one row holding its counters plus the
// full run summary as JSON. The journal is observational: the crawl's
// resumable state lives in the corpus directory itself, and deleting the
// journal loses history but never breaks a resume.
//
// The journal backs the history command (what ran, when, with what
// outcome) and lets the status command show when a corpus was last
// touched and by which run.
package journal
