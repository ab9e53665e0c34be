// Package corpus manages the on-disk document corpus produced by a crawl.
//
// A corpus is a flat directory of markdown files, one per fetched page. Each
// file begins with a header line containing the exact source URL, followed by
// a blank line and the rendered page body:
//
//	# https://docs.example.com/guide/install
//
//	Installation
//	...
//
// The header line is the only durable record of which URL produced a file, and
// it is what makes crawls resumable: a later run re-reads the headers to
// reconstruct the set of already-fetched pages.
//
// Design decision: We derive filenames deterministically from the URL path
// (slashes become underscores) instead of hashing the URL because:
//  1. The corpus stays human-browsable; a file's name tells you what it is
//  2. The same URL always maps to the same file, which makes the
//     "already saved" check a single stat call
//  3. A hash would require a side index to go from file back to URL; the
//     header line plus a readable name keeps the corpus self-describing
//
// Distinct URLs can collide on one filename (querystrings are ignored, and
// "/a/b" and "/a_b" both derive "a_b.md"). The first page saved wins; the
// header still identifies the winner unambiguously.
package corpus
