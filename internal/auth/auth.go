// Package auth performs the optional pre-crawl login step.
//
// Some hidden services are invite-only and sit behind a form login. The
// crawler supports establishing a session before crawling begins: the
// login form is POSTed through the same cookie-jarred HTTP client the
// fetcher uses, so the session cookies set by the response authenticate
// every subsequent fetch. The crawl itself has no dependency on the
// login beyond that shared session.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Login POSTs the form credentials to loginURL through client and drains
// the response. The client must carry a cookie jar for the established
// session to outlive the call. A non-success status is an error: crawling
// an invite-only site without a session would only collect login pages.
func Login(ctx context.Context, client *http.Client, loginURL string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused for the crawl.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("login rejected with status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

// ParseForm converts "key=value" pairs from the command line into form
// values. Pairs without an equals sign are rejected.
func ParseForm(pairs []string) (url.Values, error) {
	form := make(url.Values, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid login form pair %q: expected key=value", pair)
		}
		form.Set(key, value)
	}
	return form, nil
}
