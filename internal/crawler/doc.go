// Package crawler implements the crawl engine: the worker pool that
// drains the work queue through the fetch, extract, and commit pipeline.
//
// # Per-URL lifecycle
//
// Discovered -> Queued -> Fetching -> Visited on success, or FetchFailed
// on a transport error or non-success status. FetchFailed is terminal for
// the attempt: the URL stays unvisited in the frontier, so a resumed run
// retries it. There is no in-engine retry policy; a caller wanting one
// re-seeds the URL.
//
// # Failure taxonomy
//
//   - Fetch failures are local: logged, counted, crawl continues.
//   - Extraction failures are local: the page yields no links.
//   - Frontier store failures are counted; past a consecutive-failure
//     limit the whole run aborts, because a store that cannot commit can
//     no longer uphold the dedup invariant.
//
// The package also provides the URL normalizer and the HTML link
// extractor, the two pure pieces of the pipeline.
package crawler
