package client

import (
	"net/url"
	"testing"
	"time"

	"github.com/momentics/hioload-wsc/api"
	"github.com/momentics/hioload-wsc/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Defaults(t *testing.T) {
	cfg := NewBuilder().WithURL("ws://example.com/feed").Config()
	assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultHandshakeTimeout, cfg.HandshakeTimeout)
	assert.Equal(t, DefaultReadBufferSize, cfg.ReadBufferSize)
	assert.Equal(t, DefaultWriteSlotSize, cfg.WriteSlotSize)
	assert.False(t, cfg.PinWriter)
	assert.False(t, cfg.AutoReconnect)
	assert.False(t, cfg.BusyPoll)

	c, err := NewBuilder().WithURL("ws://example.com/feed").Build()
	require.NoError(t, err)
	assert.Equal(t, api.StateClosed, c.State())
	assert.Equal(t, "/feed", c.URL().Path)
	assert.IsType(t, &protocol.RFC6455{}, c.draft)
	assert.IsType(t, api.NopListener{}, c.listener)
	assert.Equal(t, DefaultQueueCapacity, c.queue.Cap())
	assert.Len(t, c.readBuf, DefaultReadBufferSize)
}

func TestNew_FillsZeroValues(t *testing.T) {
	c, err := New(Config{URL: "wss://example.com"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
	assert.Equal(t, DefaultQueueCapacity, c.queue.Cap())
	assert.Len(t, c.readBuf, DefaultReadBufferSize)
	assert.False(t, c.cfg.PinWriter, "a zero config leaves the writer unpinned")
}

func TestBuilder_WriterCPU(t *testing.T) {
	cfg := NewBuilder().WithWriterCPU(0).Config()
	assert.True(t, cfg.PinWriter)
	assert.Equal(t, 0, cfg.WriterCPU)

	cfg = NewBuilder().WithWriterCPU(3).WithWriterCPU(-1).Config()
	assert.False(t, cfg.PinWriter)
}

func TestConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  func(*Builder)
		want error
	}{
		{"missing url", func(b *Builder) { b.WithURL("") }, api.ErrMissingURL},
		{"http scheme", func(b *Builder) { b.WithURL("http://example.com") }, api.ErrUnsupportedURL},
		{"no host", func(b *Builder) { b.WithURL("ws:///path") }, api.ErrUnsupportedURL},
		{"bad port", func(b *Builder) { b.WithURL("ws://example.com:99999") }, api.ErrUnsupportedURL},
		{"small read buffer", func(b *Builder) { b.WithReadBufferSize(1024) }, api.ErrInvalidArgument},
		{"small write slot", func(b *Builder) { b.WithWriteSlotSize(8) }, api.ErrInvalidArgument},
		{"negative queue", func(b *Builder) { b.WithQueueCapacity(-1) }, api.ErrInvalidArgument},
		{"negative timeout", func(b *Builder) { b.WithTimeout(-time.Second) }, api.ErrInvalidArgument},
		{"pinned to negative cpu", func(b *Builder) { b.cfg.PinWriter, b.cfg.WriterCPU = true, -2 }, api.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder().WithURL("ws://example.com")
			tc.cfg(b)
			_, err := b.Build()
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolvePort(t *testing.T) {
	cases := map[string]int{
		"ws://example.com":         80,
		"wss://example.com":        443,
		"ws://example.com:9000":    9000,
		"wss://example.com:8443/x": 8443,
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		got, err := resolvePort(u)
		require.NoError(t, err)
		assert.Equal(t, want, got, raw)
	}
}
