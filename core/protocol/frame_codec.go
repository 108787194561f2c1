// File: core/protocol/frame_codec.go
// Package protocol implements the zero-copy RFC 6455 frame codec.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DataFrame6455 is a flyweight: it is bound to a region with Wrap and all
// accessors read the header straight from that region. Frame boundaries are
// found incrementally because the header size depends on the first length
// byte and on the mask bit.

package protocol

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/momentics/hioload-wsc/api"
)

// Ensure compile-time interface compliance.
var _ api.DataFrame = (*DataFrame6455)(nil)

// DataFrame6455 decodes and encodes RFC 6455 frames over a caller-owned region.
type DataFrame6455 struct {
	buf      []byte
	unmasked bool
}

// NewDataFrame returns an unbound frame codec.
func NewDataFrame() *DataFrame6455 {
	return &DataFrame6455{}
}

// Wrap binds the codec to b.
func (f *DataFrame6455) Wrap(b []byte) api.DataFrame {
	f.buf = b
	f.unmasked = false
	return f
}

// header parses the variable-length header. ok is false while the bytes that
// determine the header size have not arrived yet.
func (f *DataFrame6455) header() (hdr int, payload uint64, ok bool) {
	b := f.buf
	if len(b) < 2 {
		return 0, 0, false
	}
	hdr = 2
	payload = uint64(b[1] & LengthBits)
	switch payload {
	case len16Marker:
		if len(b) < 4 {
			return 0, 0, false
		}
		payload = uint64(binary.BigEndian.Uint16(b[2:]))
		hdr = 4
	case len64Marker:
		if len(b) < 10 {
			return 0, 0, false
		}
		payload = binary.BigEndian.Uint64(b[2:])
		hdr = 10
	}
	if b[1]&MaskBit != 0 {
		hdr += maskKeyLen
	}
	return hdr, payload, true
}

// IsIncomplete reports whether the region lacks the full header or payload.
func (f *DataFrame6455) IsIncomplete() bool {
	hdr, payload, ok := f.header()
	if !ok || len(f.buf) < hdr {
		return true
	}
	return uint64(len(f.buf)-hdr) < payload
}

// IsFragment reports a cleared FIN bit or a continuation opcode.
func (f *DataFrame6455) IsFragment() bool {
	return f.buf[0]&FinBit == 0 || f.Opcode() == api.OpcodeContinuous
}

// HasReservedBits reports whether RSV1-3 are set.
func (f *DataFrame6455) HasReservedBits() bool {
	return f.buf[0]&RsvBits != 0
}

// Length returns the full frame size. Only meaningful on a complete frame.
func (f *DataFrame6455) Length() int {
	hdr, payload, _ := f.header()
	return hdr + int(payload)
}

// Opcode returns the frame opcode.
func (f *DataFrame6455) Opcode() api.Opcode {
	return api.Opcode(f.buf[0] & OpcodeBits)
}

// Payload returns the payload sub-slice. A masked frame is unmasked in place
// on first access.
func (f *DataFrame6455) Payload() []byte {
	hdr, payload, _ := f.header()
	p := f.buf[hdr : hdr+int(payload)]
	if f.buf[1]&MaskBit != 0 && !f.unmasked {
		var key [4]byte
		copy(key[:], f.buf[hdr-maskKeyLen:hdr])
		maskBytes(key, p)
		f.unmasked = true
	}
	return p
}

// Encode writes a masked, final frame for op into the bound region. The region
// must have room for the payload plus MaxFrameHeaderLen; payload itself is
// never modified.
func (f *DataFrame6455) Encode(op api.Opcode, payload []byte) (int, error) {
	dst := f.buf
	plen := len(payload)
	if plen+MaxFrameHeaderLen > len(dst) {
		return 0, api.ErrPayloadTooLarge
	}
	if op.IsControl() && plen > MaxControlPayloadLen {
		return 0, fmt.Errorf("%w: control payload of %d bytes", api.ErrPayloadTooLarge, plen)
	}

	dst[0] = FinBit | byte(op)
	n := 2
	switch {
	case plen <= MaxControlPayloadLen:
		dst[1] = MaskBit | byte(plen)
	case plen <= 0xFFFF:
		dst[1] = MaskBit | len16Marker
		binary.BigEndian.PutUint16(dst[2:], uint16(plen))
		n = 4
	default:
		dst[1] = MaskBit | len64Marker
		binary.BigEndian.PutUint64(dst[2:], uint64(plen))
		n = 10
	}

	var key [4]byte
	binary.LittleEndian.PutUint32(key[:], rand.Uint32())
	copy(dst[n:], key[:])
	n += maskKeyLen

	copy(dst[n:], payload)
	maskBytes(key, dst[n:n+plen])
	f.unmasked = true
	return n + plen, nil
}
