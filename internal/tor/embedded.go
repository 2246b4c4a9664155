package tor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// Embedded manages an embedded Tor daemon via tornago, so the crawler
// works out of the box without a system Tor installation. The daemon is
// a long-lived external resource: it is acquired once at startup and
// must be released on every shutdown path, which the crawl command does
// with a deferred Stop.
//
// Bootstrapping takes one to three minutes: the daemon has to download
// directory information and build circuits before the SOCKS port is
// usable.
type Embedded struct {
	// process is the running Tor daemon, nil until Start succeeds.
	process *tornago.TorProcess

	// socksAddr is the SOCKS5 proxy address, set after startup.
	socksAddr string

	// startupTimeout caps how long Start waits for the bootstrap.
	startupTimeout time.Duration
}

// EmbeddedOption configures an Embedded daemon manager.
type EmbeddedOption func(*Embedded)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedOption {
	return func(e *Embedded) {
		e.startupTimeout = timeout
	}
}

// NewEmbedded creates an embedded Tor manager. Call Start to launch the
// daemon.
func NewEmbedded(opts ...EmbeddedOption) *Embedded {
	e := &Embedded{
		startupTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the embedded Tor daemon and blocks until it has
// bootstrapped or the timeout elapses. Ports are OS-assigned so multiple
// crawler instances do not collide.
func (e *Embedded) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	// The blocking bootstrap cannot observe the context; honor a
	// cancellation that raced with it by releasing the daemon again.
	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return ctx.Err()
	default:
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts the daemon down. Safe to call when Start never succeeded.
func (e *Embedded) Stop() error {
	if e.process == nil {
		return nil
	}
	if err := e.process.Stop(); err != nil {
		return fmt.Errorf("failed to stop embedded Tor daemon: %w", err)
	}
	e.process = nil
	return nil
}

// SocksAddr returns the SOCKS5 proxy address of the running daemon.
func (e *Embedded) SocksAddr() (string, error) {
	if e.process == nil {
		return "", errors.New("embedded Tor daemon is not running")
	}
	return e.socksAddr, nil
}
