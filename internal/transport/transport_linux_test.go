//go:build linux

package transport

import (
	"context"
	"net"
	"testing"

	"github.com/momentics/hioload-wsc/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestApplySocketOptions_NoDelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		if c, err := ln.Accept(); err == nil {
			defer c.Close()
			_, _ = c.Read(make([]byte, 1))
		}
	}()

	host, port := splitHostPort(t, ln.Addr().String())
	conn, err := NewTCPSocketFactory(api.SocketOptions{}).CreateSocket(context.Background(), host, port)
	require.NoError(t, err)
	defer conn.Close()

	raw, err := conn.(*net.TCPConn).SyscallConn()
	require.NoError(t, err)
	var nodelay int
	var gerr error
	require.NoError(t, raw.Control(func(fd uintptr) {
		nodelay, gerr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY)
	}))
	require.NoError(t, gerr)
	assert.NotZero(t, nodelay)
}
