// File: client/writer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The writer goroutine is the only consumer of the outbound queue. It parks
// on the wake channel when the queue is empty, or spins when BusyPoll is set.

package client

import (
	"runtime"

	"github.com/momentics/hioload-wsc/affinity"
	"github.com/momentics/hioload-wsc/core/concurrency"
	"go.uber.org/zap"
)

func (c *Client) runWriter(s *session) {
	defer close(s.writerDone)

	if c.cfg.PinWriter {
		// The locked thread exits with the goroutine and takes its mask along.
		if err := affinity.PinGoroutine(c.cfg.WriterCPU); err != nil {
			c.log.Warn("writer pinning failed", zap.Int("cpu", c.cfg.WriterCPU), zap.Error(err))
		}
	}

	defer c.discardQueued()

	drain := func(slot *concurrency.Slot) {
		defer slot.Reset()
		if slot.Session != s.id {
			// encoded for a connection that was torn down
			return
		}
		n, err := s.conn.Write(slot.Bytes())
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			c.metrics.WriteErrors.Add(1)
			c.log.Error("write failed", zap.Uint64("session", s.id), zap.Error(err))
			c.listener.OnWriteError(err)
			return
		}
		c.metrics.FramesWritten.Add(1)
		c.metrics.BytesWritten.Add(uint64(n))
	}

	for {
		for c.queue.Pop(drain) == nil {
		}
		if c.cfg.BusyPoll {
			select {
			case <-s.done:
				return
			default:
				runtime.Gosched()
			}
			continue
		}
		select {
		case <-s.done:
			return
		case <-c.wake:
		}
	}
}

func (c *Client) discardQueued() {
	for c.queue.Pop(resetSlot) == nil {
	}
}

func resetSlot(slot *concurrency.Slot) {
	slot.Reset()
}
