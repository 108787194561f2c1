// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the RFC 6455 draft for hioload-wsc: the opening handshake and
// the binary frame codec.
//
// Designed for a latency-critical client reading into a single reusable
// buffer: frames are decoded in place, payloads are returned as sub-slices of
// the caller's region and outbound frames are encoded straight into
// pre-allocated write slots.
//
// Includes:
//   - Incremental frame boundary detection for 7/16/64-bit lengths
//   - Client-side masking with a fresh key per frame
//   - Upgrade request construction and allocation-free response validation
package protocol
