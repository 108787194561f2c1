// File: client/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client configuration, defaults and the fluent builder.

package client

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/momentics/hioload-wsc/api"
	"github.com/momentics/hioload-wsc/core/protocol"
	"go.uber.org/zap"
)

// Defaults applied by DefaultConfig and by New for zero-valued fields.
const (
	DefaultQueueCapacity    = 10
	DefaultTimeout          = 5000 * time.Millisecond
	DefaultHandshakeTimeout = 30 * time.Second
	DefaultReadBufferSize   = 8 * 1024
	DefaultWriteSlotSize    = 2 * 1024

	// MinReadBufferSize is the handshake scratch size. Frames that arrive
	// with the handshake response are carried into the read buffer, so the
	// read buffer can never be smaller.
	MinReadBufferSize = 4 * 1024
)

// Config holds all client parameters. Zero values select the defaults.
type Config struct {
	URL string // ws:// or wss:// target, required

	SocketFactory api.SocketFactory // nil selects TCP or TLS by scheme
	SocketOptions api.SocketOptions // applied by the built-in factories
	TLSConfig     *tls.Config       // used by the built-in TLS factory

	AutoReconnect    bool          // reconnect when no frame arrives within Timeout
	Timeout          time.Duration // idle timeout for AutoReconnect
	HandshakeTimeout time.Duration // upper bound for the opening handshake

	QueueCapacity  int // outbound slots
	WriteSlotSize  int // bytes per outbound slot, header included
	ReadBufferSize int // inbound buffer, the largest receivable frame

	PinWriter bool // lock the writer goroutine to WriterCPU
	WriterCPU int  // CPU for the writer goroutine when PinWriter is set
	BusyPoll  bool // writer spins instead of parking when the queue is empty

	Listener api.Listener
	Draft    api.Draft
	Logger   *zap.Logger
}

// DefaultConfig returns a configuration with every optional field set.
func DefaultConfig() Config {
	return Config{
		Timeout:          DefaultTimeout,
		HandshakeTimeout: DefaultHandshakeTimeout,
		QueueCapacity:    DefaultQueueCapacity,
		WriteSlotSize:    DefaultWriteSlotSize,
		ReadBufferSize:   DefaultReadBufferSize,
	}
}

// endpoint is the resolved dial target.
type endpoint struct {
	url  *url.URL
	host string
	port int
}

// validate fills zero values with defaults and resolves the target URL.
func (c *Config) validate() (endpoint, error) {
	var ep endpoint
	if c.URL == "" {
		return ep, api.ErrMissingURL
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return ep, fmt.Errorf("%w: %v", api.ErrUnsupportedURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return ep, fmt.Errorf("%w: %q", api.ErrUnsupportedURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return ep, fmt.Errorf("%w: url has no host", api.ErrUnsupportedURL)
	}
	port, err := resolvePort(u)
	if err != nil {
		return ep, err
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.WriteSlotSize == 0 {
		c.WriteSlotSize = DefaultWriteSlotSize
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	switch {
	case c.Timeout < 0 || c.HandshakeTimeout < 0:
		return ep, fmt.Errorf("%w: negative timeout", api.ErrInvalidArgument)
	case c.QueueCapacity < 0:
		return ep, fmt.Errorf("%w: queue capacity %d", api.ErrInvalidArgument, c.QueueCapacity)
	case c.WriteSlotSize < protocol.MaxFrameHeaderLen:
		return ep, fmt.Errorf("%w: write slot size %d", api.ErrInvalidArgument, c.WriteSlotSize)
	case c.ReadBufferSize < MinReadBufferSize:
		return ep, fmt.Errorf("%w: read buffer size %d is below %d", api.ErrInvalidArgument, c.ReadBufferSize, MinReadBufferSize)
	case c.PinWriter && c.WriterCPU < 0:
		return ep, fmt.Errorf("%w: writer cpu %d", api.ErrInvalidArgument, c.WriterCPU)
	}

	if c.Listener == nil {
		c.Listener = api.NopListener{}
	}
	if c.Draft == nil {
		c.Draft = protocol.NewRFC6455()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return endpoint{url: u, host: u.Hostname(), port: port}, nil
}

// resolvePort returns the explicit port, else 443 for wss, else 80.
func resolvePort(u *url.URL) (int, error) {
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return 0, fmt.Errorf("%w: port %q", api.ErrUnsupportedURL, p)
		}
		return port, nil
	}
	if u.Scheme == "wss" {
		return 443, nil
	}
	return 80, nil
}

// Builder assembles a Config fluently.
type Builder struct {
	cfg Config
}

// NewBuilder starts from DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

func (b *Builder) WithURL(rawURL string) *Builder {
	b.cfg.URL = rawURL
	return b
}

func (b *Builder) WithSocketFactory(f api.SocketFactory) *Builder {
	b.cfg.SocketFactory = f
	return b
}

func (b *Builder) WithSocketOptions(o api.SocketOptions) *Builder {
	b.cfg.SocketOptions = o
	return b
}

func (b *Builder) WithTLSConfig(cfg *tls.Config) *Builder {
	b.cfg.TLSConfig = cfg
	return b
}

func (b *Builder) WithAutoReconnect(enabled bool) *Builder {
	b.cfg.AutoReconnect = enabled
	return b
}

func (b *Builder) WithTimeout(d time.Duration) *Builder {
	b.cfg.Timeout = d
	return b
}

func (b *Builder) WithHandshakeTimeout(d time.Duration) *Builder {
	b.cfg.HandshakeTimeout = d
	return b
}

func (b *Builder) WithQueueCapacity(n int) *Builder {
	b.cfg.QueueCapacity = n
	return b
}

func (b *Builder) WithWriteSlotSize(n int) *Builder {
	b.cfg.WriteSlotSize = n
	return b
}

func (b *Builder) WithReadBufferSize(n int) *Builder {
	b.cfg.ReadBufferSize = n
	return b
}

// WithWriterCPU pins the writer goroutine's thread to cpu. A negative cpu
// leaves the writer unpinned.
func (b *Builder) WithWriterCPU(cpu int) *Builder {
	b.cfg.PinWriter = cpu >= 0
	b.cfg.WriterCPU = cpu
	return b
}

func (b *Builder) WithBusyPoll(enabled bool) *Builder {
	b.cfg.BusyPoll = enabled
	return b
}

func (b *Builder) WithListener(l api.Listener) *Builder {
	b.cfg.Listener = l
	return b
}

func (b *Builder) WithDraft(d api.Draft) *Builder {
	b.cfg.Draft = d
	return b
}

func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// Config returns a copy of the accumulated configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build validates the configuration and creates the client.
func (b *Builder) Build() (*Client, error) {
	return New(b.cfg)
}
