package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Renderer fetches pages through an external headless-rendering service
// that executes JavaScript before returning the resulting DOM. The service
// exposes a single endpoint accepting a JSON body {"url": "..."} and
// responding with the serialized HTML.
//
// Design decision: The renderer is a long-lived external session, so it is
// modeled as a Fetcher variant selected at construction time rather than a
// runtime flag inside the static path. The engine holds exactly one
// Fetcher and releases it on every shutdown path, which keeps the session
// lifecycle scoped instead of living in package state.
type Renderer struct {
	// client talks to the rendering service. This is typically a direct
	// client, not the Tor-proxied one: the service itself is expected to
	// route its browser traffic through Tor.
	client *http.Client

	// limiter is the shared politeness limiter, common with any other
	// fetcher in the same crawl.
	limiter *rate.Limiter

	// endpoint is the rendering service URL.
	endpoint string

	// maxBodySize limits how much of the rendered DOM is read.
	maxBodySize int64
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererMaxBodySize sets the maximum rendered DOM size.
func WithRendererMaxBodySize(size int64) RendererOption {
	return func(r *Renderer) {
		r.maxBodySize = size
	}
}

// NewRenderer creates a Renderer that delegates fetching to the rendering
// service at endpoint.
func NewRenderer(client *http.Client, limiter *rate.Limiter, endpoint string, opts ...RendererOption) *Renderer {
	r := &Renderer{
		client:      client,
		limiter:     limiter,
		endpoint:    endpoint,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// renderRequest is the JSON body sent to the rendering service.
type renderRequest struct {
	URL string `json:"url"`
}

// Fetch asks the rendering service for the fully rendered DOM of the URL.
// The politeness limiter is honored exactly as in the static variant: the
// render triggers a real request against the target site.
func (r *Renderer) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("politeness wait aborted: %w", err)
	}

	body, err := json.Marshal(renderRequest{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("failed to encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build render request for %q: %w", pageURL, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render failed for %q: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	return readBody(resp.Body, r.maxBodySize)
}

// Close releases idle connections to the rendering service.
func (r *Renderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
