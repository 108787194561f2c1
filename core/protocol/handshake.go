// File: core/protocol/handshake.go
// Package protocol implements the client side of the RFC 6455 opening handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The request is appended into a caller-provided buffer and the response is
// validated in place over the accumulated bytes, without net/http.

package protocol

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/momentics/hioload-wsc/api"
)

// Ensure compile-time interface compliance.
var _ api.Draft = (*RFC6455)(nil)

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

// Header markers searched case-insensitively in the response.
const (
	markerUpgrade    = "upgrade: websocket"
	markerConnection = "connection: upgrade"
	markerAccept     = "sec-websocket-accept"

	markerUpgradeBit    = 1 << 0
	markerConnectionBit = 1 << 1
	markerAcceptBit     = 1 << 2
	markerAll           = markerUpgradeBit | markerConnectionBit | markerAcceptBit
)

// RFC6455 is the only wire-format draft supported today.
type RFC6455 struct{}

// NewRFC6455 returns the RFC 6455 draft.
func NewRFC6455() *RFC6455 {
	return &RFC6455{}
}

// NewDataFrame returns a fresh RFC 6455 frame codec.
func (d *RFC6455) NewDataFrame() api.DataFrame {
	return NewDataFrame()
}

// AppendHandshake appends the HTTP/1.1 upgrade request to dst. A fresh
// Sec-WebSocket-Key is drawn from crypto/rand on every call.
func (d *RFC6455) AppendHandshake(dst []byte, input api.HandshakeInput) ([]byte, error) {
	u := input.URL
	if u == nil || u.Host == "" {
		return dst, fmt.Errorf("%w: handshake requires a url with a host", api.ErrInvalidArgument)
	}

	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return dst, fmt.Errorf("generate websocket key: %w", err)
	}
	var key [24]byte
	base64.StdEncoding.Encode(key[:], raw[:])

	path := u.RequestURI()
	if path == "" {
		path = DefaultPath
	}

	dst = append(dst, "GET "...)
	dst = append(dst, path...)
	dst = append(dst, " HTTP/1.1\r\nHost: "...)
	dst = append(dst, u.Host...)
	dst = append(dst, "\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: "...)
	dst = append(dst, key[:]...)
	dst = append(dst, "\r\nSec-WebSocket-Version: "...)
	dst = append(dst, WebSocketVersion...)
	dst = append(dst, "\r\n\r\n"...)
	return dst, nil
}

// ParseHandshake validates the response head accumulated in b.
//
// It returns HandshakeIncomplete until the blank line terminating the head
// has arrived. Otherwise n is the length of the head including the blank
// line; anything after it is already frame data. The accept key is checked
// for presence only.
func (d *RFC6455) ParseHandshake(b []byte) (api.HandshakeState, int) {
	end := bytes.Index(b, crlfcrlf)
	if end < 0 {
		return api.HandshakeIncomplete, 0
	}
	n := end + len(crlfcrlf)

	// head keeps the CRLF of the last header line so every line is terminated.
	head := b[:end+len(crlf)]
	status, rest := cutLine(head)
	if string(status) != StatusLine {
		return api.HandshakeInvalidProtocol, n
	}

	var seen uint8
	for len(rest) > 0 {
		var line []byte
		line, rest = cutLine(rest)
		switch {
		case containsFold(line, markerUpgrade):
			seen |= markerUpgradeBit
		case containsFold(line, markerConnection):
			seen |= markerConnectionBit
		case containsFold(line, markerAccept):
			seen |= markerAcceptBit
		}
	}
	if seen != markerAll {
		return api.HandshakeMissingHeaders, n
	}
	return api.HandshakeMatched, n
}

func cutLine(b []byte) (line, rest []byte) {
	i := bytes.Index(b, crlf)
	if i < 0 {
		return b, nil
	}
	return b[:i], b[i+len(crlf):]
}

// containsFold reports whether s contains the lower-case ASCII needle,
// ignoring ASCII case in s.
func containsFold(s []byte, needle string) bool {
	for i := 0; i+len(needle) <= len(s); i++ {
		j := 0
		for ; j < len(needle); j++ {
			c := s[i+j]
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != needle[j] {
				break
			}
		}
		if j == len(needle) {
			return true
		}
	}
	return false
}
