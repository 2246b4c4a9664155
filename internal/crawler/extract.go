package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Extractor collects outbound hyperlinks from HTML content.
//
// Design decision: We use golang.org/x/net/html rather than regex because
// it correctly handles the malformed HTML that is the norm on hidden
// services, and best-effort extraction from whatever is parseable falls
// out of the parser's error recovery for free.
type Extractor struct {
	// onionOnly restricts results to .onion hosts. The crawler accepts
	// every http/https link by default; scoping to the darknet is an
	// explicit opt-in.
	onionOnly bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithOnionOnly restricts extracted links to .onion hosts.
func WithOnionOnly() ExtractorOption {
	return func(e *Extractor) {
		e.onionOnly = true
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses r as HTML and returns the deduplicated set of absolute
// http/https links found in href attributes, each normalized against
// baseURL. Input in a non-UTF-8 charset is decoded by sniffing. Malformed
// HTML never fails: the parser recovers and Extract returns whatever
// links it could find.
func (e *Extractor) Extract(r io.Reader, baseURL string) ([]string, error) {
	decoded, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("failed to detect content charset: %w", err)
	}

	doc, err := html.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				if link, ok := Normalize(href, baseURL); ok && e.allowed(link) && !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// allowed applies the optional .onion host filter.
func (e *Extractor) allowed(link string) bool {
	if !e.onionOnly {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), ".onion")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
