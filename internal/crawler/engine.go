package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onioncrawl/onioncrawl/internal/fetch"
	"github.com/onioncrawl/onioncrawl/internal/frontier"
	"github.com/onioncrawl/onioncrawl/internal/queue"
)

// DefaultWorkers is the default size of the worker pool.
const DefaultWorkers = 4

// DefaultStoreFailureLimit is how many consecutive frontier write failures
// the engine tolerates before aborting the run. Once the store can no
// longer commit, the dedup invariant cannot be trusted and continuing
// would risk duplicate fetches on resume.
const DefaultStoreFailureLimit = 3

// Engine orchestrates the crawl: a fixed pool of workers drains the work
// queue, fetching each URL, extracting its links, committing progress to
// the frontier, and pushing newly discovered URLs back onto the queue,
// until the queue drains or the context is cancelled.
//
// Crawl order across workers is not deterministic and does not need to
// be: the frontier's dedup contract, not ordering, is what guarantees
// each URL is processed at most once.
type Engine struct {
	// store is the durable frontier, the only shared mutable resource
	// that requires synchronized access (SQLite serializes it).
	store *frontier.Store

	// fetcher retrieves page content. Shared read-only across workers;
	// its politeness limiter is internally synchronized.
	fetcher fetch.Fetcher

	// extractor pulls outbound links from fetched pages.
	extractor *Extractor

	// q is the transient work queue mirroring the frontier's unvisited set.
	q *queue.Queue

	// workers is the pool size.
	workers int

	// storeFailureLimit caps consecutive frontier failures before abort.
	storeFailureLimit int

	// logger reports per-URL outcomes.
	logger *slog.Logger

	// storeFailures counts consecutive frontier failures; reset on success.
	storeFailures int
	failureMu     sync.Mutex

	// stats accumulates run counters.
	stats   Stats
	statsMu sync.Mutex
}

// Stats summarizes a crawl run.
type Stats struct {
	// Fetched is the number of pages successfully fetched and parsed.
	Fetched int

	// Failed is the number of URLs whose fetch failed. These remain
	// unvisited in the frontier and are retried on resume.
	Failed int

	// Discovered is the number of new URLs admitted to the frontier.
	Discovered int

	// Skipped is the number of popped URLs already visited, from the
	// race where two workers enqueue the same link before either commits.
	Skipped int

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithExtractor sets a custom link extractor.
func WithExtractor(x *Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// WithStoreFailureLimit sets how many consecutive frontier failures are
// tolerated before the run aborts.
func WithStoreFailureLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.storeFailureLimit = n
		}
	}
}

// NewEngine creates an Engine over the given frontier and fetcher.
// The engine does not own either resource: the caller opens them before
// the run and closes them after, so every shutdown path releases them.
func NewEngine(store *frontier.Store, fetcher fetch.Fetcher, opts ...Option) *Engine {
	e := &Engine{
		store:             store,
		fetcher:           fetcher,
		extractor:         NewExtractor(),
		q:                 queue.New(),
		workers:           DefaultWorkers,
		storeFailureLimit: DefaultStoreFailureLimit,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Seed admits a starting URL: inserted into the frontier if absent and
// pushed onto the queue only if the insert was new, so re-seeding an
// already crawled URL does not refetch it.
func (e *Engine) Seed(ctx context.Context, url string) error {
	inserted, err := e.store.InsertIfAbsent(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to seed %q: %w", url, err)
	}
	if inserted {
		e.q.Push(url)
		e.logger.Info("seeded", "url", url)
		return nil
	}

	// Known URL: queue it for a retry only if a previous run never
	// finished fetching it.
	visited, err := e.store.IsVisited(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to check seed %q: %w", url, err)
	}
	if !visited {
		e.q.Push(url)
		e.logger.Info("re-queued unvisited seed", "url", url)
	}
	return nil
}

// SeedPending repopulates the queue from the frontier's unvisited records.
// This is the resume path: everything a previous run discovered but never
// fetched becomes runnable again. It returns the number of URLs queued.
func (e *Engine) SeedPending(ctx context.Context) (int, error) {
	pending, err := e.store.Unvisited(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending urls: %w", err)
	}
	for _, u := range pending {
		e.q.Push(u)
	}
	e.logger.Info("resumed pending urls", "count", len(pending))
	return len(pending), nil
}

// Run executes the crawl until the queue drains or ctx is cancelled.
// It returns the run statistics together with the first fatal error, if
// any. Per-URL fetch failures are not fatal; repeated frontier failures
// and context cancellation are.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	// Nothing was seeded: the drain condition is already met, and workers
	// must not block on an empty queue that can never fill.
	if e.q.Len() == 0 {
		e.q.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	// Close the queue when the context dies so blocked workers wake up
	// and the drained signal fires on the cancellation path too.
	go func() {
		select {
		case <-ctx.Done():
			e.q.Close()
		case <-e.q.Drained():
		}
	}()

	for i := range e.workers {
		g.Go(func() error {
			return e.worker(ctx, i)
		})
	}

	err := g.Wait()

	e.statsMu.Lock()
	e.stats.Elapsed = time.Since(start)
	stats := e.stats
	e.statsMu.Unlock()

	if err != nil {
		return stats, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stats, ctxErr
	}
	return stats, nil
}

// worker repeatedly claims a URL and processes it until the queue reports
// exhaustion. Steps for one URL run strictly in sequence before the next
// is claimed.
func (e *Engine) worker(ctx context.Context, id int) error {
	logger := e.logger.With("worker", id)
	for {
		url, ok := e.q.Pop(ctx)
		if !ok {
			return nil
		}

		err := e.process(ctx, logger, url)
		e.q.Done()
		if err != nil {
			return err
		}
	}
}

// process runs the fetch/extract/commit cycle for a single URL. The only
// non-nil returns are fatal: a frontier that can no longer commit.
func (e *Engine) process(ctx context.Context, logger *slog.Logger, url string) error {
	// Two workers can race to enqueue the same link before either
	// commits it; the loser is detected here.
	visited, err := e.store.IsVisited(ctx, url)
	if err != nil {
		return e.storeFailure(logger, err)
	}
	if visited {
		e.addSkipped()
		logger.Debug("skipping visited url", "url", url)
		return nil
	}

	content, err := e.fetcher.Fetch(ctx, url)
	if err != nil || content == "" {
		// Transient failure: leave the URL unvisited so a resumed run
		// retries it, and keep crawling.
		e.addFailed()
		logger.Warn("fetch failed", "url", url, "error", err)
		return nil
	}

	links, err := e.extractor.Extract(strings.NewReader(content), url)
	if err != nil {
		// Extraction failure is recovered locally: the page still counts
		// as visited, it just contributes no links.
		logger.Debug("link extraction failed", "url", url, "error", err)
		links = nil
	}

	if err := e.store.MarkVisited(ctx, url); err != nil {
		return e.storeFailure(logger, err)
	}

	newLinks := 0
	for _, link := range links {
		inserted, err := e.store.InsertIfAbsent(ctx, link)
		if err != nil {
			return e.storeFailure(logger, err)
		}
		if inserted {
			e.q.Push(link)
			newLinks++
		}
	}

	e.storeSuccess()
	e.addFetched(newLinks)
	logger.Info("crawled", "url", url, "links", len(links), "new", newLinks)
	return nil
}

// storeFailure records a frontier failure and decides whether the run can
// continue. It returns nil while under the limit so the worker keeps
// going, and the wrapped error once the limit is reached.
func (e *Engine) storeFailure(logger *slog.Logger, err error) error {
	e.failureMu.Lock()
	e.storeFailures++
	failures := e.storeFailures
	e.failureMu.Unlock()

	logger.Error("frontier store failure", "error", err, "consecutive", failures)
	if failures >= e.storeFailureLimit {
		return fmt.Errorf("aborting crawl after %d consecutive store failures: %w", failures, err)
	}
	return nil
}

// storeSuccess resets the consecutive failure counter.
func (e *Engine) storeSuccess() {
	e.failureMu.Lock()
	e.storeFailures = 0
	e.failureMu.Unlock()
}

func (e *Engine) addFetched(discovered int) {
	e.statsMu.Lock()
	e.stats.Fetched++
	e.stats.Discovered += discovered
	e.statsMu.Unlock()
}

func (e *Engine) addFailed() {
	e.statsMu.Lock()
	e.stats.Failed++
	e.statsMu.Unlock()
}

func (e *Engine) addSkipped() {
	e.statsMu.Lock()
	e.stats.Skipped++
	e.statsMu.Unlock()
}
