// File: client/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Opening handshake over a freshly dialed socket. The wait is bounded by a
// connection deadline; ctx cancellation moves that deadline into the past.

package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/momentics/hioload-wsc/api"
)

// handshake writes the upgrade request and reads the response head into the
// scratch buffer. On success it returns a copy of any frame bytes that
// followed the head.
func (c *Client) handshake(ctx context.Context, conn net.Conn) ([]byte, error) {
	deadline := time.Now().Add(c.cfg.HandshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, api.NewHandshakeError(api.HandshakeUnknown, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	req, err := c.draft.AppendHandshake(c.reqBuf[:0], api.HandshakeInput{URL: c.ep.url})
	if err != nil {
		return nil, api.NewHandshakeError(api.HandshakeInvalidWrite, err)
	}
	c.reqBuf = req[:0]
	if _, err := conn.Write(req); err != nil {
		return nil, c.handshakeIOError(ctx, api.HandshakeInvalidWrite, err)
	}

	n := 0
	for {
		if n == len(c.hsBuf) {
			return nil, api.NewHandshakeError(api.HandshakeTooLarge, nil)
		}
		m, err := conn.Read(c.hsBuf[n:])
		n += m
		if m > 0 {
			state, end := c.draft.ParseHandshake(c.hsBuf[:n])
			switch state {
			case api.HandshakeIncomplete:
			case api.HandshakeMatched:
				if !stop() {
					// ctx ended first; its deadline may land after the reset below.
					return nil, api.NewHandshakeError(api.HandshakeTimeout, context.Cause(ctx))
				}
				if err := conn.SetDeadline(time.Time{}); err != nil {
					return nil, api.NewHandshakeError(api.HandshakeUnknown, err)
				}
				if end == n {
					return nil, nil
				}
				return bytes.Clone(c.hsBuf[end:n]), nil
			default:
				return nil, api.NewHandshakeError(state, nil)
			}
			continue
		}
		if err != nil {
			return nil, c.handshakeIOError(ctx, api.HandshakeInvalidRead, err)
		}
	}
}

// handshakeIOError classifies a socket error raised during the handshake.
func (c *Client) handshakeIOError(ctx context.Context, fallback api.HandshakeState, err error) error {
	switch {
	case ctx.Err() != nil:
		return api.NewHandshakeError(api.HandshakeTimeout, ctx.Err())
	case isTimeout(err):
		return api.NewHandshakeError(api.HandshakeTimeout, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed):
		return api.NewHandshakeError(api.HandshakeSocketClosed, err)
	}
	return api.NewHandshakeError(fallback, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
