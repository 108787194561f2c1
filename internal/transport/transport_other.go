//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket options are Linux-only; elsewhere the dialer relies on SetNoDelay.

package transport

import "github.com/momentics/hioload-wsc/api"

func applySocketOptions(uintptr, api.SocketOptions) error {
	return nil
}
