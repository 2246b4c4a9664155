// Package queue provides the in-memory work queue for the crawl engine.
//
// The queue is transient by design: the durable record of what remains to
// be fetched lives in the frontier store, and the queue is rebuilt from it
// on resume. Its one job beyond FIFO delivery is drain detection, the
// join barrier that tells the engine no worker can produce more work.
package queue
