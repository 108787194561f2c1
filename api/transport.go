// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the socket factory abstraction the client dials through. Plain and
// secure socket creation live behind it.

package api

import (
	"context"
	"net"
)

// SocketFactory opens a connected stream socket to host:port.
type SocketFactory interface {
	CreateSocket(ctx context.Context, host string, port int) (net.Conn, error)
}

// SocketFactoryFunc adapts a function to SocketFactory.
type SocketFactoryFunc func(ctx context.Context, host string, port int) (net.Conn, error)

// CreateSocket calls f.
func (f SocketFactoryFunc) CreateSocket(ctx context.Context, host string, port int) (net.Conn, error) {
	return f(ctx, host, port)
}

// SocketOptions tunes the sockets created by the built-in factories. Nagle's
// algorithm is always disabled. Zero values leave the kernel defaults in
// place; the options are applied on Linux only.
type SocketOptions struct {
	// QuickAck requests immediate ACKs (TCP_QUICKACK).
	QuickAck bool
	// BusyPollMicros enables SO_BUSY_POLL with the given budget.
	BusyPollMicros int
	// RecvBufferSize and SendBufferSize set SO_RCVBUF and SO_SNDBUF.
	RecvBufferSize int
	SendBufferSize int
}
