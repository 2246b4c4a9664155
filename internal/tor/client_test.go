package tor

import (
	"context"
	"io"
	"net"
	"testing"
	"time"
)

// TestNewClient tests proxy address validation.
func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "valid address", address: "127.0.0.1:9050", wantErr: false},
		{name: "valid hostname", address: "localhost:9150", wantErr: false},
		{name: "missing port", address: "127.0.0.1", wantErr: true},
		{name: "empty host", address: ":9050", wantErr: true},
		{name: "non-numeric port", address: "127.0.0.1:abc", wantErr: true},
		{name: "port out of range", address: "127.0.0.1:99999", wantErr: true},
		{name: "port zero", address: "127.0.0.1:0", wantErr: true},
		{name: "empty address", address: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(tt.address, time.Minute)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

// fakeSocks5Proxy answers the minimal SOCKS5 exchange the probe performs.
func fakeSocks5Proxy(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()

				// Auth negotiation: read version + methods, select no-auth.
				header := make([]byte, 2)
				if _, err := io.ReadFull(conn, header); err != nil {
					return
				}
				methods := make([]byte, header[1])
				if _, err := io.ReadFull(conn, methods); err != nil {
					return
				}
				if _, err := conn.Write([]byte{socks5Version, socks5AuthNone}); err != nil {
					return
				}

				// CONNECT request: reply host-unreachable, which the
				// probe accepts as proof of a live proxy.
				reqHeader := make([]byte, 5)
				if _, err := io.ReadFull(conn, reqHeader); err != nil {
					return
				}
				rest := make([]byte, int(reqHeader[4])+2)
				if _, err := io.ReadFull(conn, rest); err != nil {
					return
				}
				_, _ = conn.Write([]byte{socks5Version, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
			}(conn)
		}
	}()

	return ln.Addr().String()
}

// TestCheckConnection tests the SOCKS5 connectivity probe.
func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("reports OK against a SOCKS5 listener", func(t *testing.T) {
		t.Parallel()

		addr := fakeSocks5Proxy(t)
		client, err := NewClient(addr, time.Minute)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status != ProxyStatusOK {
			t.Errorf("expected ProxyStatusOK, got %s", status)
		}
	})

	t.Run("reports cannot-connect when nothing listens", func(t *testing.T) {
		t.Parallel()

		// Reserve a port and close it so nothing is listening there.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := ln.Addr().String()
		_ = ln.Close()

		client, err := NewClient(addr, time.Minute)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status == ProxyStatusOK {
			t.Error("expected failure status for closed port")
		}
	})

	t.Run("reports wrong type for a non-SOCKS listener", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		t.Cleanup(func() { _ = ln.Close() })

		go func() {
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				// Answer like an HTTP server, not a SOCKS proxy.
				_, _ = conn.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
				_ = conn.Close()
			}
		}()

		client, err := NewClient(ln.Addr().String(), time.Minute)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if status := client.CheckConnection(context.Background()); status != ProxyStatusWrongType {
			t.Errorf("expected ProxyStatusWrongType, got %s", status)
		}
	})
}

// TestProxyStatus tests status stringification and error mapping.
func TestProxyStatus(t *testing.T) {
	t.Parallel()

	if ProxyStatusOK.Error() != nil {
		t.Error("expected nil error for ProxyStatusOK")
	}
	if ProxyStatusWrongType.Error() != ErrProxyNotTor {
		t.Error("expected ErrProxyNotTor for ProxyStatusWrongType")
	}
	if ProxyStatusCannotConnect.Error() != ErrProxyCannotConnect {
		t.Error("expected ErrProxyCannotConnect for ProxyStatusCannotConnect")
	}
	if ProxyStatusTimeout.Error() != ErrProxyTimeout {
		t.Error("expected ErrProxyTimeout for ProxyStatusTimeout")
	}

	if ProxyStatusOK.String() != "OK" {
		t.Errorf("unexpected string for OK status: %s", ProxyStatusOK)
	}
}

// TestIsOnionHost tests the .onion host check.
func TestIsOnionHost(t *testing.T) {
	t.Parallel()

	if !IsOnionHost("example.onion") {
		t.Error("expected example.onion to be an onion host")
	}
	if !IsOnionHost("EXAMPLE.ONION") {
		t.Error("expected the check to be case-insensitive")
	}
	if IsOnionHost("example.com") {
		t.Error("expected example.com not to be an onion host")
	}
}
