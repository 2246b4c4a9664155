package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/onioncrawl/onioncrawl/internal/fetch"
)

// Default configuration values. Chosen for Tor network characteristics
// and the politeness expectations of crawling hidden services.
const (
	// DefaultTorProxyAddress is the standard Tor daemon SOCKS port.
	// 127.0.0.1 rather than localhost avoids DNS resolution quirks.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultFetchTimeout bounds a single page fetch. The value lives in
	// the fetch package next to the code it governs.
	DefaultFetchTimeout = fetch.DefaultTimeout

	// DefaultDelay is the minimum interval between any two requests.
	// Five seconds is deliberately conservative: hidden services are
	// often small machines, and the crawler is a guest.
	DefaultDelay = fetch.DefaultDelay

	// DefaultWorkers is the worker pool size. More workers do not raise
	// the request rate (the delay is global); they only overlap the slow
	// Tor round trips.
	DefaultWorkers = 4

	// DefaultUserAgent identifies the crawler in request headers.
	// A descriptive User-Agent lets operators recognize crawler traffic.
	DefaultUserAgent = "Mozilla/5.0 (compatible; onioncrawl/0.1; +https://github.com/onioncrawl/onioncrawl)"

	// DefaultTorStartupTimeout caps the embedded Tor bootstrap wait.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is used for XDG directory paths.
	AppName = "onioncrawl"
)

// Config holds all crawler options, populated from CLI flags and the
// optional config file and passed by dependency injection rather than
// package state.
type Config struct {
	// Seed is the starting URL for a new crawl. Empty on resume.
	Seed string

	// DBDir is the directory holding the frontier database.
	// Defaults to the XDG data directory.
	DBDir string

	// Delay is the global minimum interval between requests.
	Delay time.Duration

	// Workers is the number of concurrent crawl workers.
	Workers int

	// FetchTimeout bounds each page fetch.
	FetchTimeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// TorProxyAddress is the SOCKS5 proxy in "host:port" format. Used
	// only with UseExternalTor; otherwise the embedded daemon's address
	// wins.
	TorProxyAddress string

	// UseExternalTor disables the embedded Tor daemon in favor of an
	// already-running proxy at TorProxyAddress.
	UseExternalTor bool

	// TorStartupTimeout caps the embedded Tor bootstrap wait.
	TorStartupTimeout time.Duration

	// RenderEndpoint, when set, switches fetching to the external
	// headless-rendering service at this URL.
	RenderEndpoint string

	// OnionOnly restricts discovered links to .onion hosts. Off by
	// default: the crawler follows every http/https link it finds.
	OnionOnly bool

	// LoginURL, when set, is POSTed the LoginData form before the crawl
	// to establish an authenticated session.
	LoginURL string

	// LoginData holds the login form fields as "key=value" pairs.
	LoginData []string

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig returns a Config with defaults filled in.
//
// Design decision: A constructor rather than zero values, because most
// defaults are non-zero and this doubles as their documentation.
func NewConfig() *Config {
	return &Config{
		DBDir:             XDGDataDir(),
		Delay:             DefaultDelay,
		Workers:           DefaultWorkers,
		FetchTimeout:      DefaultFetchTimeout,
		UserAgent:         DefaultUserAgent,
		TorProxyAddress:   DefaultTorProxyAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// On Linux: ~/.local/share/onioncrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration, returning the first problem found.
// Called once after flag parsing, before any resource is opened, so
// misconfiguration fails before the crawl rather than mid-run.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Seed != "" {
		u, err := url.Parse(c.Seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidSeed
		}
	}
	if c.RenderEndpoint != "" {
		if _, err := url.Parse(c.RenderEndpoint); err != nil {
			return ErrInvalidRenderEndpoint
		}
	}
	if len(c.LoginData) > 0 && c.LoginURL == "" {
		return ErrLoginDataWithoutURL
	}
	return nil
}
