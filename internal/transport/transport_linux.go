// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket options applied before connect.

package transport

import (
	"fmt"

	"github.com/momentics/hioload-wsc/api"
	"golang.org/x/sys/unix"
)

func applySocketOptions(fd uintptr, o api.SocketOptions) error {
	s := int(fd)
	if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		return fmt.Errorf("setsockopt TCP_NODELAY: %w", err)
	}
	if o.QuickAck {
		if err := unix.SetsockoptInt(s, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1); err != nil {
			return fmt.Errorf("setsockopt TCP_QUICKACK: %w", err)
		}
	}
	if o.BusyPollMicros > 0 {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_BUSY_POLL, o.BusyPollMicros); err != nil {
			return fmt.Errorf("setsockopt SO_BUSY_POLL: %w", err)
		}
	}
	if o.RecvBufferSize > 0 {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_RCVBUF, o.RecvBufferSize); err != nil {
			return fmt.Errorf("setsockopt SO_RCVBUF: %w", err)
		}
	}
	if o.SendBufferSize > 0 {
		if err := unix.SetsockoptInt(s, unix.SOL_SOCKET, unix.SO_SNDBUF, o.SendBufferSize); err != nil {
			return fmt.Errorf("setsockopt SO_SNDBUF: %w", err)
		}
	}
	return nil
}
