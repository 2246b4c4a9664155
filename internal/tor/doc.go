// Package tor provides the crawler's Tor network transport.
//
// The crawler only talks to target sites through a Tor SOCKS5 proxy,
// either an external daemon the user already runs or an embedded daemon
// launched via tornago. Client builds the proxied HTTP client the
// fetcher uses and verifies proxy connectivity with a real SOCKS5
// handshake before any worker starts. The package also validates v3
// onion addresses, used when the crawl is scoped to the darknet.
package tor
