// Package protocol
// Author: momentics <momentics@gmail.com>
//
// WebSocket wire protocol constants

package protocol

const (
	// Frame limit settings
	MaxControlPayloadLen = 125
	MaxFrameHeaderLen    = 14 // for extended payloads with masking

	// Bit masks
	FinBit     = 0x80
	RsvBits    = 0x70
	OpcodeBits = 0x0F
	MaskBit    = 0x80
	LengthBits = 0x7F

	// Length markers in the second header byte
	len16Marker = 126
	len64Marker = 127

	maskKeyLen = 4
)

// Handshake constants
const (
	WebSocketVersion = "13"
	StatusLine       = "HTTP/1.1 101 Switching Protocols"
	DefaultPath      = "/"
)
