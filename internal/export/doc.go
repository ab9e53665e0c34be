// Package export builds machine-readable inventories of a crawl corpus.
//
// An inventory lists every document in the corpus directory with its source
// URL, size, and content hash. The CSV form feeds spreadsheets and shell
// pipelines; the JSON form feeds other tools. Hashes let a consumer detect
// documents that changed between crawls without diffing file contents.
package export
