// Package main provides the entry point for the docshound CLI.
//
// Docshound crawls documentation sites and saves each page as a markdown
// file in a flat output directory. Crawls are resumable: a re-run picks up
// where the previous run stopped, using the saved files themselves as state.
//
// Usage:
//
//	docshound crawl https://docs.example.com
//	docshound fetch https://docs.example.com/install
//
// See --help for all available options.
package main

// main is the entry point for docshound.
func main() {
	Execute()
}
