// Package frontier implements the durable URL frontier for the crawler.
//
// The frontier is a SQLite-backed set of URL records, each carrying a
// visited flag. It owns the authoritative dedup decision: InsertIfAbsent
// is an atomic check-and-insert, so across any number of concurrent
// workers each distinct URL is admitted exactly once. Because the store
// is durable, a crawl interrupted at any point can be resumed from the
// same database without refetching pages that were already committed.
//
// # Invariants
//
//   - A URL appears at most once (url is the primary key).
//   - visited only transitions false -> true and never reverts.
//   - Records are never deleted.
//   - Every mutation is committed before the call returns; a write error
//     is surfaced to the caller, never swallowed.
package frontier
