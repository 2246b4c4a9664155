package queue

import (
	"context"
	"sync"
)

// Queue is an in-memory multi-producer/multi-consumer FIFO of URL strings
// with join semantics: alongside the queued items it tracks how many popped
// items are still being processed, and closes itself once both counts reach
// zero. That is the drain condition for the crawl: nothing queued, and no
// in-flight fetch that could still discover new links.
//
// Design decision: We use a mutex plus condition variable over a slice
// rather than a buffered channel because:
//  1. Push must never block, which a channel can only approximate with a
//     fixed capacity
//  2. The drain condition couples the queue length with the in-flight
//     count, and both must be inspected under one lock
//  3. Closing a channel with blocked senders panics; a cond broadcast
//     wakes blocked consumers cleanly
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []string
	inWork int
	closed bool

	// drained is closed exactly once, when the queue reaches the
	// empty-and-idle state or is closed externally.
	drained   chan struct{}
	drainOnce sync.Once
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{
		drained: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a URL to the queue. It never blocks and is a no-op after
// the queue has been closed.
func (q *Queue) Push(url string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.items = append(q.items, url)
	q.cond.Signal()
}

// Pop removes and returns the next URL, suspending the caller until an
// item is available, the queue drains or closes, or ctx is cancelled.
// The second return value is false when no more items will ever arrive.
//
// Every successful Pop must be balanced by exactly one Done call once the
// item has been fully processed, regardless of outcome.
func (q *Queue) Pop(ctx context.Context) (string, bool) {
	// Wake blocked waiters when the context is cancelled. The broadcast
	// is harmless if Pop already returned.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}

	// The queue only self-closes when empty, so a closed queue with items
	// remaining means an external Close; stop handing out work either way.
	if q.closed || ctx.Err() != nil || len(q.items) == 0 {
		return "", false
	}

	url := q.items[0]
	q.items = q.items[1:]
	q.inWork++
	return url, true
}

// Done signals that a previously popped item has been fully processed.
// When the last in-flight item completes against an empty queue, the
// queue closes and all blocked Pop calls return false.
func (q *Queue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.inWork--
	if q.inWork == 0 && len(q.items) == 0 {
		q.closeLocked()
	}
}

// Close shuts the queue down externally (cancellation path). Blocked Pop
// calls return false and subsequent pushes are discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeLocked()
}

// closeLocked marks the queue closed and fires the drained signal.
// Callers must hold q.mu.
func (q *Queue) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.drainOnce.Do(func() { close(q.drained) })
}

// Drained returns a channel that is closed once the queue is empty with
// no in-flight items, or has been closed externally.
func (q *Queue) Drained() <-chan struct{} {
	return q.drained
}

// Len returns the number of queued items. In-flight items are not counted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
