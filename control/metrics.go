// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime counters for a client connection. Every counter is a single atomic
// word so the hot read path can update it without locks or allocation.

package control

import (
	"sync/atomic"
	"time"
)

// Metric keys exposed by Snapshot.
const (
	MetricFramesRead     = "frames_read"
	MetricBytesRead      = "bytes_read"
	MetricFramesQueued   = "frames_queued"
	MetricFramesWritten  = "frames_written"
	MetricBytesWritten   = "bytes_written"
	MetricWriteErrors    = "write_errors"
	MetricPongsQueued    = "pongs_queued"
	MetricConnects       = "connects"
	MetricReconnects     = "reconnects"
	MetricTimeouts       = "timeouts"
	MetricHandshakeFails = "handshake_failures"
	MetricUpdated        = "updated"
)

// Metrics holds the counters of one client.
type Metrics struct {
	FramesRead     atomic.Uint64
	BytesRead      atomic.Uint64
	FramesQueued   atomic.Uint64
	FramesWritten  atomic.Uint64
	BytesWritten   atomic.Uint64
	WriteErrors    atomic.Uint64
	PongsQueued    atomic.Uint64
	Connects       atomic.Uint64
	Reconnects     atomic.Uint64
	Timeouts       atomic.Uint64
	HandshakeFails atomic.Uint64
}

// NewMetrics creates a zeroed counter set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// GetSnapshot returns the current values keyed by metric name.
func (m *Metrics) GetSnapshot() map[string]any {
	return map[string]any{
		MetricFramesRead:     m.FramesRead.Load(),
		MetricBytesRead:      m.BytesRead.Load(),
		MetricFramesQueued:   m.FramesQueued.Load(),
		MetricFramesWritten:  m.FramesWritten.Load(),
		MetricBytesWritten:   m.BytesWritten.Load(),
		MetricWriteErrors:    m.WriteErrors.Load(),
		MetricPongsQueued:    m.PongsQueued.Load(),
		MetricConnects:       m.Connects.Load(),
		MetricReconnects:     m.Reconnects.Load(),
		MetricTimeouts:       m.Timeouts.Load(),
		MetricHandshakeFails: m.HandshakeFails.Load(),
		MetricUpdated:        time.Now(),
	}
}
