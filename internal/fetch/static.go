package fetch

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Static fetches pages with plain HTTP GETs over the configured transport.
// The transport is expected to be pre-configured for the Tor SOCKS5 proxy;
// Static itself is proxy-agnostic.
type Static struct {
	// client is the HTTP client used for all requests. It is shared
	// read-only across workers; per-request state lives in the request.
	client *http.Client

	// limiter is the shared politeness limiter. Every Fetch waits on it
	// before touching the network.
	limiter *rate.Limiter

	// userAgent identifies the crawler in request headers.
	userAgent string

	// maxBodySize limits how much of the response body is read.
	maxBodySize int64
}

// StaticOption configures a Static fetcher.
type StaticOption func(*Static)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) StaticOption {
	return func(s *Static) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) StaticOption {
	return func(s *Static) {
		s.maxBodySize = size
	}
}

// NewStatic creates a Static fetcher over the given client and limiter.
// The limiter must be shared with any other fetcher participating in the
// same crawl so the politeness delay holds across all of them.
func NewStatic(client *http.Client, limiter *rate.Limiter, opts ...StaticOption) *Static {
	s := &Static{
		client:      client,
		limiter:     limiter,
		userAgent:   "Mozilla/5.0 (compatible; onioncrawl/0.1; +https://github.com/onioncrawl/onioncrawl)",
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch issues a GET for the URL after waiting on the politeness limiter.
// Non-2xx responses are returned as a StatusError with empty content.
func (s *Static) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("politeness wait aborted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %q: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed for %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	return readBody(resp.Body, s.maxBodySize)
}

// Close releases idle connections held by the client's transport.
func (s *Static) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
