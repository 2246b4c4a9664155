package tor

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the SOCKS5 connectivity probe. The probe never
// leaves the local machine, so a short timeout is enough.
const checkProxyTimeout = 2 * time.Second

// Client provides Tor network connectivity for the crawler. It wraps a
// SOCKS5 dialer pointed at a Tor daemon and builds HTTP clients that
// route every request through it.
type Client struct {
	// proxyAddress is the Tor SOCKS5 proxy address in "host:port" format.
	proxyAddress string

	// dialer is the cached SOCKS5 dialer.
	dialer proxy.Dialer

	// timeout is the per-request timeout for HTTP clients built by this
	// client.
	timeout time.Duration
}

// NewClient creates a Tor client for the proxy at proxyAddress
// ("host:port"). The address format is validated here; whether a proxy is
// actually listening is checked separately via CheckConnection, so the
// client can be constructed before Tor finishes bootstrapping.
func NewClient(proxyAddress string, timeout time.Duration) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// Tor's SOCKS port does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, errors.Join(ErrInvalidProxyAddress, err)
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// isValidProxyAddress checks "host:port" format with a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return false
	}
	return port >= 1 && port <= 65535
}

// SOCKS5 protocol constants for the connectivity probe.
const (
	socks5Version    = 0x05
	socks5AuthNone   = 0x00
	socks5AuthReject = 0xFF
	socks5CmdConnect = 0x01
	socks5AddrDomain = 0x03

	// socks5ProbeOnion is a synthetic v3-length address used only to
	// verify the proxy processes SOCKS5 CONNECT requests for .onion
	// domains. It intentionally does not exist; the probe cares about
	// the proxy's response, not the connection outcome.
	socks5ProbeOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"
)

// CheckConnection verifies that a Tor SOCKS5 proxy is reachable at the
// configured address. It performs a real SOCKS5 handshake rather than a
// string match: version negotiation with no-auth, then a CONNECT for a
// synthetic .onion address. Any well-formed SOCKS5 reply, including a
// host-unreachable failure, proves the proxy is live and speaks the
// protocol.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Version negotiation: offer no-auth only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}

	// CONNECT for the probe address; the proxy must at least answer.
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(socks5ProbeOnion))}
	req = append(req, []byte(socks5ProbeOnion)...)
	req = append(req, 0x00, 0x50) // port 80
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	reply := make([]byte, 4)
	if _, err := io.ReadFull(conn, reply); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}
	if reply[0] != socks5Version {
		return ProxyStatusWrongType
	}

	return ProxyStatusOK
}

// NewHTTPClient builds an HTTP client that routes all requests through
// the Tor proxy. The client carries a cookie jar so a login session
// established before the crawl authenticates every subsequent fetch.
// TLS verification is disabled: hidden services use self-signed
// certificates, and the .onion address itself authenticates the service.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
			return c.dialer.Dial(network, addr)
		},
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Required for .onion services
		},
		// Each connection consumes a Tor circuit, so keep the pool small.
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		// Compressed responses leak content-length side channels, which
		// matters more than bandwidth on anonymity-focused connections.
		DisableCompression: true,
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// ProxyAddress returns the configured proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// IsOnionHost reports whether host is a .onion hostname.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}
