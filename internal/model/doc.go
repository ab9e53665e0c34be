// Package model defines the core data structures shared across docshound.
//
// This package contains the following main types:
//   - FetchResult: What a fetch engine returns for one page
//   - Run: The summary of one crawl invocation
//   - PageOutcome: The per-URL processing record inside a Run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, engine, report, journal) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// journal storage.
package model
