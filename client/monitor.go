// File: client/monitor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Idle-timeout supervisor, started per session when AutoReconnect is set.

package client

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// monitorTicks is the number of checks per idle timeout.
const monitorTicks = 4

func (c *Client) runMonitor(s *session) {
	interval := c.cfg.Timeout / monitorTicks
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fired := false
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		if c.sess.Load() != s {
			return
		}
		if !fired {
			idle := time.Since(time.UnixMilli(c.lastMessage.Load()))
			if idle <= c.cfg.Timeout {
				continue
			}
			fired = true
			c.metrics.Timeouts.Add(1)
			c.log.Warn("idle timeout", zap.Uint64("session", s.id), zap.Duration("idle", idle))
			c.listener.OnTimeout()
		}

		// A caller holding the lock is closing or reconnecting; retry on the
		// next tick unless that tears this session down first.
		if !c.lifecycle.TryLock() {
			continue
		}
		if c.sess.Load() != s {
			c.lifecycle.Unlock()
			return
		}
		gen := c.gen.Load()
		c.teardown()
		c.lifecycle.Unlock()
		c.redial(gen)
		return
	}
}

// redial reconnects after a supervised teardown. It keeps trying once per
// idle timeout until it succeeds or a caller takes over the lifecycle.
func (c *Client) redial(gen uint64) {
	for attempt := 1; ; attempt++ {
		c.lifecycle.Lock()
		if c.gen.Load() != gen || c.sess.Load() != nil {
			c.lifecycle.Unlock()
			return
		}
		err := c.connectLocked(context.Background())
		c.lifecycle.Unlock()
		if err == nil {
			c.metrics.Reconnects.Add(1)
			c.listener.OnConnect()
			return
		}
		c.log.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(c.cfg.Timeout)
	}
}
