package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Fetcher retrieves raw page content for a URL. Implementations share one
// output contract: on success the page content is returned as a string,
// and on any transport error or non-success status an error is returned
// with empty content. The worker boundary treats that error as a per-URL
// failure, never as a reason to stop the crawl.
type Fetcher interface {
	// Fetch retrieves the content of the given URL. It blocks on the
	// shared politeness limiter before issuing the request.
	Fetch(ctx context.Context, url string) (string, error)

	// Close releases any resources held by the fetcher (idle connections,
	// rendering sessions). Safe to call once after the crawl finishes.
	Close() error
}

// Default fetch settings.
const (
	// DefaultTimeout bounds a single fetch. Tor adds several relay hops,
	// so this is generous compared to clearnet crawlers.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay is the minimum interval between any two requests,
	// across all workers.
	DefaultDelay = 5 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// NewLimiter builds the shared politeness limiter: one request permitted
// per delay interval, with no burst.
//
// Design decision: The limiter is global rather than per worker. With a
// per-call sleep the effective request rate would scale with the worker
// count (N workers each sleeping independently still issue N requests per
// delay window). A single rate.Limiter shared by every fetcher makes the
// delay a true inter-request guarantee regardless of concurrency.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// StatusError reports a response with a non-success HTTP status.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// readBody drains a response body up to the size limit.
func readBody(body io.Reader, limit int64) (string, error) {
	b, err := io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(b), nil
}
