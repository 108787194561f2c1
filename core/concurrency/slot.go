// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// Slot is a reusable outbound buffer. The producer encodes into Buf and sets
// N; the consumer writes Buf[:N] and resets N. Session tags the connection the
// frame was encoded for.
type Slot struct {
	Buf     []byte
	N       int
	Session uint64
}

// NewSlot allocates a slot with a fixed size buffer.
func NewSlot(size int) *Slot {
	return &Slot{Buf: make([]byte, size)}
}

// Bytes returns the filled portion of the slot.
func (s *Slot) Bytes() []byte {
	return s.Buf[:s.N]
}

// Reset marks the slot empty.
func (s *Slot) Reset() {
	s.N = 0
	s.Session = 0
}
