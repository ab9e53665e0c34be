// Package pipeline sequences the phases of a crawl run and fans out
// explicit fetch lists.
//
// A crawl invocation restores frontier state from the corpus before
// draining it, and records the finished run in the journal afterwards.
// Each phase is a Step that receives the accumulated run summary and can
// modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of phases without modifying core logic
// 2. It provides consistent error handling and logging across phases
// 3. It supports cancellation via context between phases
//
// The package also provides BatchFetcher, which fetches an explicit URL
// list without recursion using errgroup for concurrency control.
package pipeline
