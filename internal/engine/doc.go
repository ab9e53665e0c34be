// Package engine implements page retrieval and rendering for docshound.
//
// An engine turns a URL into a model.FetchResult: whether the page was worth
// keeping, its markdown rendering, and the raw markup it was rendered from.
// HTTPEngine fetches markup over plain HTTP; ChromeEngine drives headless
// Chrome for sites that assemble their pages with JavaScript, falling back
// to HTTP when Chrome fails.
//
// Design decision: Engines render to markdown themselves instead of handing
// raw markup back for the caller to process because:
// 1. The chrome engine has no raw response; its DOM snapshot is already the
//    thing to render
// 2. Charset handling belongs next to the transport that sees the response
//    headers
// 3. The crawl worker stays a pure traversal loop, testable with stubs
package engine
