// Package transport
// Author: momentics <momentics@gmail.com>
//
// Socket factories for hioload-wsc. Plain TCP sockets are dialed with Nagle
// disabled and optional Linux socket options applied before connect; secure
// sockets wrap the same dialer with crypto/tls.
package transport
