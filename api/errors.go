// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-wsc.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrIllegalState    = errors.New("hioload-wsc: illegal connection state")
	ErrMissingURL      = errors.New("hioload-wsc: url is required")
	ErrUnsupportedURL  = errors.New("hioload-wsc: url scheme must be ws or wss")
	ErrInvalidArgument = errors.New("hioload-wsc: invalid argument")

	// Capacity errors are returned synchronously to the caller and never retried.
	ErrQueueFull       = errors.New("hioload-wsc: write queue is full")
	ErrQueueEmpty      = errors.New("hioload-wsc: write queue is empty")
	ErrPayloadTooLarge = errors.New("hioload-wsc: payload exceeds write slot capacity")

	// Protocol violations terminate the read path.
	ErrFragmentedFrame = errors.New("hioload-wsc: fragmented frames are not supported")
	ErrReservedBits    = errors.New("hioload-wsc: reserved bits set without a negotiated extension")
	ErrUnknownOpcode   = errors.New("hioload-wsc: unknown opcode")
	ErrBufferOverflow  = errors.New("hioload-wsc: frame does not fit in the read buffer")

	ErrHandshake = errors.New("hioload-wsc: handshake failed")
)

// HandshakeError carries the reason an opening handshake did not complete.
type HandshakeError struct {
	State HandshakeState
	Err   error // underlying I/O error, if any
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrHandshake, e.State.Description())
	}
	return fmt.Sprintf("%s: %s: %v", ErrHandshake, e.State.Description(), e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// Is reports ErrHandshake as a match so callers can test the whole class.
func (e *HandshakeError) Is(target error) bool {
	return target == ErrHandshake
}

// NewHandshakeError builds a HandshakeError for state, optionally wrapping err.
func NewHandshakeError(state HandshakeState, err error) *HandshakeError {
	return &HandshakeError{State: state, Err: err}
}
