// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and wire constants.

package api

// ConnectionState enumerates the lifecycle of a client connection.
type ConnectionState int32

const (
	StateClosed ConnectionState = iota
	StateConnecting
	StateOpen
)

func (s ConnectionState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Opcode is the 4-bit frame type tag.
type Opcode byte

const (
	OpcodeContinuous Opcode = 0x0
	OpcodeText       Opcode = 0x1
	OpcodeBinary     Opcode = 0x2
	OpcodeClosing    Opcode = 0x8
	OpcodePing       Opcode = 0x9
	OpcodePong       Opcode = 0xA
)

func (o Opcode) String() string {
	switch o {
	case OpcodeContinuous:
		return "continuous"
	case OpcodeText:
		return "text"
	case OpcodeBinary:
		return "binary"
	case OpcodeClosing:
		return "closing"
	case OpcodePing:
		return "ping"
	case OpcodePong:
		return "pong"
	default:
		return "unknown"
	}
}

// IsControl reports whether o is a control opcode (close, ping, pong).
func (o Opcode) IsControl() bool {
	return o&0x8 != 0
}

// HandshakeState is the outcome of parsing or attempting an opening handshake.
type HandshakeState int

const (
	HandshakeMatched HandshakeState = iota
	HandshakeInvalidWrite
	HandshakeInvalidRead
	HandshakeIncomplete
	HandshakeSocketClosed
	HandshakeTooLarge
	HandshakeInvalidProtocol
	HandshakeMissingHeaders
	HandshakeTimeout
	HandshakeUnknown
)

func (s HandshakeState) String() string {
	switch s {
	case HandshakeMatched:
		return "MATCHED"
	case HandshakeInvalidWrite:
		return "INVALID_WRITE"
	case HandshakeInvalidRead:
		return "INVALID_READ"
	case HandshakeIncomplete:
		return "INCOMPLETE"
	case HandshakeSocketClosed:
		return "SOCKET_CLOSED"
	case HandshakeTooLarge:
		return "TOO_LARGE"
	case HandshakeInvalidProtocol:
		return "INVALID_PROTOCOL"
	case HandshakeMissingHeaders:
		return "MISSING_HEADERS"
	case HandshakeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable explanation of the state.
func (s HandshakeState) Description() string {
	switch s {
	case HandshakeMatched:
		return "handshake matched"
	case HandshakeInvalidWrite:
		return "I/O error while sending the handshake to the server"
	case HandshakeInvalidRead:
		return "I/O error while reading the handshake from the server"
	case HandshakeIncomplete:
		return "handshake response is still arriving"
	case HandshakeSocketClosed:
		return "the socket closed before the handshake completed"
	case HandshakeTooLarge:
		return "the handshake response does not fit in the handshake buffer"
	case HandshakeInvalidProtocol:
		return "the server answered with an unexpected status line"
	case HandshakeMissingHeaders:
		return "the handshake response is missing required headers"
	case HandshakeTimeout:
		return "the handshake attempt expired"
	default:
		return "unknown error during the handshake"
	}
}
