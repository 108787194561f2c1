// File: api/websocket.go
// Author: momentics <momentics@gmail.com>
//
// Defines the pluggable wire-format strategy (Draft) and the in-place frame
// view (DataFrame) the client decodes and encodes through.

package api

import "net/url"

// DataFrame is a reusable view over a caller-owned byte region. It never
// allocates and never copies payload bytes on decode.
type DataFrame interface {
	// Wrap binds the frame to b. Offsets are expressed by slicing the
	// caller's buffer, e.g. buf[frameOffset:readOffset].
	Wrap(b []byte) DataFrame

	// IsIncomplete reports whether the bound region lacks a full header or
	// the declared payload.
	IsIncomplete() bool

	// IsFragment reports whether the frame belongs to a multi-frame message.
	IsFragment() bool

	// HasReservedBits reports whether any RSV bit is set.
	HasReservedBits() bool

	// Length is the total frame size: header, extended length, mask key and payload.
	Length() int

	// Opcode returns the frame type.
	Opcode() Opcode

	// Payload returns the payload as a sub-slice of the bound region. The
	// view is only valid until the region is mutated again.
	Payload() []byte

	// Encode writes a complete client frame for op and payload into the
	// bound region and returns the number of bytes written.
	Encode(op Opcode, payload []byte) (int, error)
}

// HandshakeInput holds what a Draft needs to build an opening handshake.
type HandshakeInput struct {
	URL *url.URL
}

// Draft defines the handshake formatting and the frame wire format.
type Draft interface {
	// NewDataFrame returns a fresh frame codec. Callers keep one per role.
	NewDataFrame() DataFrame

	// AppendHandshake appends the upgrade request for input to dst.
	AppendHandshake(dst []byte, input HandshakeInput) ([]byte, error)

	// ParseHandshake inspects the accumulated response bytes. When the state
	// is not HandshakeIncomplete, n is the length of the response head;
	// bytes after n belong to the frame stream.
	ParseHandshake(b []byte) (state HandshakeState, n int)
}
