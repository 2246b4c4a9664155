package crawler

import (
	"net/url"
	"strings"
)

// Normalize resolves href against base and canonicalizes the result into
// the comparable form used as the frontier key. It returns false for
// hrefs that cannot yield a crawlable URL: malformed references,
// non-navigational schemes (javascript:, mailto:, tel:, data:), bare
// fragments, and anything that does not resolve to http or https.
//
// Canonicalization: fragments are stripped (they never change the fetched
// content), scheme and host are lowercased, and an empty path becomes "/"
// so http://example.onion and http://example.onion/ dedup to one record.
// Standard URI resolution rules apply, including ".." segments and
// protocol-relative "//host/path" references.
func Normalize(href, base string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return "", false
	}
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return "", false
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	u := baseURL.ResolveReference(ref)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), true
}
