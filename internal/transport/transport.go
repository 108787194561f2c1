// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent socket factories. Platform-specific socket options
// are applied from the dialer's Control hook.

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/momentics/hioload-wsc/api"
)

// Ensure compile-time interface compliance.
var (
	_ api.SocketFactory = (*TCPSocketFactory)(nil)
	_ api.SocketFactory = (*TLSSocketFactory)(nil)
)

// TCPSocketFactory dials plain TCP sockets.
type TCPSocketFactory struct {
	Options     api.SocketOptions
	DialTimeout time.Duration // 0 = bounded by ctx only
}

// NewTCPSocketFactory returns a plain TCP factory applying opts.
func NewTCPSocketFactory(opts api.SocketOptions) *TCPSocketFactory {
	return &TCPSocketFactory{Options: opts}
}

// CreateSocket dials host:port over TCP.
func (f *TCPSocketFactory) CreateSocket(ctx context.Context, host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := f.dialer().DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return conn, nil
}

func (f *TCPSocketFactory) dialer() *net.Dialer {
	opts := f.Options
	return &net.Dialer{
		Timeout: f.DialTimeout,
		Control: func(_, _ string, c syscall.RawConn) error {
			var serr error
			if err := c.Control(func(fd uintptr) {
				serr = applySocketOptions(fd, opts)
			}); err != nil {
				return err
			}
			return serr
		},
	}
}

// TLSSocketFactory dials TCP through TCPSocketFactory and completes a TLS
// handshake before returning.
type TLSSocketFactory struct {
	TCP    TCPSocketFactory
	Config *tls.Config // nil = system roots, ServerName from host
}

// NewTLSSocketFactory returns a secure factory. cfg may be nil.
func NewTLSSocketFactory(opts api.SocketOptions, cfg *tls.Config) *TLSSocketFactory {
	return &TLSSocketFactory{TCP: TCPSocketFactory{Options: opts}, Config: cfg}
}

// CreateSocket dials host:port and performs the TLS handshake.
func (f *TLSSocketFactory) CreateSocket(ctx context.Context, host string, port int) (net.Conn, error) {
	raw, err := f.TCP.CreateSocket(ctx, host, port)
	if err != nil {
		return nil, err
	}
	var cfg *tls.Config
	if f.Config != nil {
		cfg = f.Config.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}
	return conn, nil
}

// ForScheme returns the default factory for a ws or wss URL scheme.
func ForScheme(scheme string, opts api.SocketOptions) api.SocketFactory {
	if scheme == "wss" {
		return NewTLSSocketFactory(opts, nil)
	}
	return NewTCPSocketFactory(opts)
}
