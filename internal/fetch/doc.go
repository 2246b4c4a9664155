// Package fetch provides the page-retrieval layer of the crawler.
//
// Two Fetcher variants exist: Static issues plain GETs over the
// Tor-proxied client, and Renderer delegates to an external
// headless-rendering service for JavaScript-heavy sites. Both honor a
// shared rate.Limiter so the politeness delay is a global guarantee,
// not a per-worker one: regardless of how many workers run, at most one
// request leaves per delay interval.
package fetch
