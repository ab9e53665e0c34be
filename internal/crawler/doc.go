// Package crawler implements the resumable breadth-first crawl at the heart
// of docshound.
//
// # Architecture
//
// The package is built around three cooperating pieces:
//
//   - Frontier: the mutable crawl state. A FIFO queue of URLs to visit plus
//     the seen and visited sets that make every URL processed at most once.
//   - Worker: drains the Frontier one URL at a time, calls the fetch engine,
//     persists page bodies to the corpus, and offers newly discovered
//     in-scope links back to the Frontier.
//   - Restore: rebuilds Frontier state from an existing corpus so a second
//     run never re-fetches a page it already saved.
//
// Around them sit pure helpers: Normalize (relative link resolution), Scope
// (same-host filtering with asset exclusion), and the link extractors for
// raw HTML and rendered markdown.
//
// Design decision: We implement our own frontier rather than using a crawling
// framework because:
//  1. Resume-from-corpus is the defining behavior and needs direct control
//     over the seen/visited bookkeeping
//  2. Breadth-first order must be a provable property, not a framework detail
//  3. The worker's save/cancel interleaving has exact rules that a framework
//     callback model would obscure
//
// # Resume
//
// A corpus directory is the only durable crawl state. On startup, Restore
// reads every document header to learn which URLs are already fetched, then
// re-extracts links from the saved bodies so pages reachable only through a
// previous run's documents still get queued. Explicit seeds are queued after
// the re-discovered links.
//
// # Interruption
//
// Cancellation is cooperative. The worker checks the run context at loop
// boundaries and once more immediately before writing a file, under the same
// lock that guards the saved counter. A fetch already in flight completes;
// no file is ever half-written because of an interrupt.
package crawler
