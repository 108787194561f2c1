// File: client/client.go
// Package client provides the low-latency WebSocket client.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Client owns one connection at a time. The caller goroutine runs Connect,
// Poll, the Write family and Close. A writer goroutine drains the outbound
// queue onto the socket, and with AutoReconnect a supervisor goroutine
// replaces connections that go silent. The inbound buffer, the outbound slots
// and the frame codecs are allocated once in New and reused for every
// connection.

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/momentics/hioload-wsc/api"
	"github.com/momentics/hioload-wsc/control"
	"github.com/momentics/hioload-wsc/core/concurrency"
	"github.com/momentics/hioload-wsc/internal/transport"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// session is the state of one live connection. Background goroutines hold
// the session they were started for and stop when done is closed.
type session struct {
	id         uint64
	conn       net.Conn
	leftover   []byte // frame bytes that arrived with the handshake response
	ended      bool   // peer closed the stream; owned by the polling goroutine
	done       chan struct{}
	writerDone chan struct{}
}

// Client is a single-connection WebSocket client.
//
// Poll, Write, WriteText and Ping must be called from one goroutine. Connect,
// Reconnect and Close may be called from any goroutine.
type Client struct {
	cfg      Config
	ep       endpoint
	log      *zap.Logger
	listener api.Listener
	factory  api.SocketFactory
	draft    api.Draft
	metrics  *control.Metrics
	probes   *control.DebugProbes

	state     atomic.Int32
	lifecycle sync.Mutex
	sess      atomic.Pointer[session]
	nextID    uint64 // guarded by lifecycle
	gen       atomic.Uint64

	// Read side, owned by the polling goroutine.
	readBuf     []byte
	readOffset  int
	frameOffset int
	readSession uint64
	inFrame     api.DataFrame

	// Handshake scratch, guarded by lifecycle.
	reqBuf []byte
	hsBuf  []byte

	// Write side. The polling goroutine is the only producer.
	queue          *concurrency.FlyweightQueue[*concurrency.Slot]
	outFrame       api.DataFrame
	pendingOp      api.Opcode
	pendingPayload []byte
	pendingSession uint64
	fill           func(*concurrency.Slot) error
	wake           chan struct{}

	lastMessage atomic.Int64 // unix millis of the last successful read
}

// New validates cfg and allocates every buffer the client will use.
func New(cfg Config) (*Client, error) {
	ep, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		ep:       ep,
		log:      cfg.Logger.Named("wsc").With(zap.String("url", ep.url.Redacted())),
		listener: cfg.Listener,
		factory:  cfg.SocketFactory,
		draft:    cfg.Draft,
		metrics:  control.NewMetrics(),
		probes:   control.NewDebugProbes(),
		readBuf:  make([]byte, cfg.ReadBufferSize),
		inFrame:  cfg.Draft.NewDataFrame(),
		reqBuf:   make([]byte, 0, 512),
		hsBuf:    make([]byte, MinReadBufferSize),
		outFrame: cfg.Draft.NewDataFrame(),
		wake:     make(chan struct{}, 1),
	}
	if c.factory == nil {
		c.factory = defaultFactory(ep.url, cfg)
	}
	c.queue = concurrency.NewFlyweightQueue(cfg.QueueCapacity, func() *concurrency.Slot {
		return concurrency.NewSlot(cfg.WriteSlotSize)
	})
	c.fill = c.fillSlot
	c.state.Store(int32(api.StateClosed))
	c.registerProbes()
	return c, nil
}

func (c *Client) registerProbes() {
	control.RegisterPlatformProbes(c.probes)
	c.probes.RegisterProbe("client.state", func() any {
		return c.State().String()
	})
	c.probes.RegisterProbe("client.session", func() any {
		if s := c.sess.Load(); s != nil {
			return s.id
		}
		return uint64(0)
	})
	c.probes.RegisterProbe("client.queue.len", func() any {
		return c.queue.Len()
	})
	c.probes.RegisterProbe("client.queue.cap", func() any {
		return c.queue.Cap()
	})
}

func defaultFactory(u *url.URL, cfg Config) api.SocketFactory {
	if u.Scheme == "wss" && cfg.TLSConfig != nil {
		return transport.NewTLSSocketFactory(cfg.SocketOptions, cfg.TLSConfig)
	}
	return transport.ForScheme(u.Scheme, cfg.SocketOptions)
}

// State returns the current connection state.
func (c *Client) State() api.ConnectionState {
	return api.ConnectionState(c.state.Load())
}

// Metrics returns the live counters of this client.
func (c *Client) Metrics() *control.Metrics {
	return c.metrics
}

// Debug returns the probe registry. Callers may add probes of their own.
func (c *Client) Debug() api.Debug {
	return c.probes
}

// URL returns the parsed target.
func (c *Client) URL() *url.URL {
	return c.ep.url
}

// Connect opens the socket, performs the opening handshake and starts the
// background goroutines. It fails with api.ErrIllegalState unless the client
// is closed. A handshake failure is returned as *api.HandshakeError and
// leaves the client closed.
func (c *Client) Connect(ctx context.Context) error {
	c.lifecycle.Lock()
	c.gen.Add(1)
	err := c.connectLocked(ctx)
	c.lifecycle.Unlock()
	if err != nil {
		return err
	}
	c.listener.OnConnect()
	return nil
}

// Reconnect closes the current connection, if any, and connects again.
func (c *Client) Reconnect(ctx context.Context) error {
	c.lifecycle.Lock()
	c.gen.Add(1)
	c.teardown()
	err := c.connectLocked(ctx)
	c.lifecycle.Unlock()
	if err != nil {
		return err
	}
	c.metrics.Reconnects.Add(1)
	c.listener.OnConnect()
	return nil
}

// Close tears the connection down. It is safe in any state and always
// returns nil; socket errors during shutdown are only logged.
func (c *Client) Close() error {
	c.lifecycle.Lock()
	c.gen.Add(1)
	c.teardown()
	c.lifecycle.Unlock()
	return nil
}

// connectLocked runs with the lifecycle lock held.
func (c *Client) connectLocked(ctx context.Context) error {
	if c.sess.Load() != nil || !c.state.CompareAndSwap(int32(api.StateClosed), int32(api.StateConnecting)) {
		return api.ErrIllegalState
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	conn, err := c.factory.CreateSocket(dialCtx, c.ep.host, c.ep.port)
	cancel()
	if err != nil {
		c.state.Store(int32(api.StateClosed))
		return fmt.Errorf("hioload-wsc: dial %s:%d: %w", c.ep.host, c.ep.port, err)
	}

	leftover, err := c.handshake(ctx, conn)
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			c.log.Debug("close after failed handshake", zap.Error(cerr))
		}
		c.state.Store(int32(api.StateClosed))
		c.metrics.HandshakeFails.Add(1)
		c.log.Warn("handshake failed", zap.Error(err))
		return err
	}

	c.nextID++
	s := &session{
		id:         c.nextID,
		conn:       conn,
		leftover:   leftover,
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	c.lastMessage.Store(time.Now().UnixMilli())
	// No writer runs until the one below, so this is the only consumer. A
	// slot published late by the previous session keeps its old tag.
	c.discardQueued()
	go c.runWriter(s)
	if c.cfg.AutoReconnect {
		go c.runMonitor(s)
	}
	c.sess.Store(s)
	c.state.Store(int32(api.StateOpen))
	c.metrics.Connects.Add(1)
	c.log.Info("connected", zap.Uint64("session", s.id), zap.Int("leftover", len(leftover)))
	return nil
}

// teardown runs with the lifecycle lock held. The writer is joined so that a
// later session never has two queue consumers. The supervisor is only
// signalled: it may be the caller, or inside a listener callback that is
// closing the client.
func (c *Client) teardown() {
	c.state.Store(int32(api.StateClosed))
	s := c.sess.Swap(nil)
	if s == nil {
		return
	}
	close(s.done)
	if err := s.conn.Close(); err != nil {
		c.log.Debug("close socket", zap.Error(err))
	}
	<-s.writerDone
	c.log.Info("disconnected", zap.Uint64("session", s.id))
}

// Poll returns the payload of the next TEXT or BINARY frame, blocking on the
// socket until one is complete. PING and PONG frames are consumed in line.
//
// The returned slice aliases the read buffer and is valid until the next
// Poll. Poll returns nil, nil when the client is not open, at end of stream
// and after a close frame. With AutoReconnect, a Poll after end of stream
// blocks until the connection is replaced or closed. Protocol violations
// close the client and are returned.
func (c *Client) Poll() ([]byte, error) {
	s := c.sess.Load()
	if s == nil || c.State() != api.StateOpen {
		return nil, nil
	}
	if s.id != c.readSession {
		c.readSession = s.id
		c.readOffset = copy(c.readBuf, s.leftover)
		c.frameOffset = 0
	}
	if s.ended {
		// Nothing more can arrive; wait for the supervisor or Close.
		<-s.done
		return nil, nil
	}

	for {
		if c.frameOffset == c.readOffset {
			c.frameOffset, c.readOffset = 0, 0
		} else if c.frameOffset > len(c.readBuf)/2 {
			c.compact()
		}

		frame := c.inFrame.Wrap(c.readBuf[c.frameOffset:c.readOffset])
		for frame.IsIncomplete() {
			if c.readOffset == len(c.readBuf) {
				if c.frameOffset == 0 {
					return nil, c.fail(api.ErrBufferOverflow)
				}
				c.compact()
			}
			n, err := s.conn.Read(c.readBuf[c.readOffset:])
			if n > 0 {
				c.readOffset += n
				c.metrics.BytesRead.Add(uint64(n))
				if c.cfg.AutoReconnect {
					c.lastMessage.Store(time.Now().UnixMilli())
				}
			} else if err != nil {
				return nil, c.readFailed(s, err)
			}
			frame = c.inFrame.Wrap(c.readBuf[c.frameOffset:c.readOffset])
		}

		if frame.IsFragment() {
			return nil, c.fail(api.ErrFragmentedFrame)
		}
		if frame.HasReservedBits() {
			return nil, c.fail(api.ErrReservedBits)
		}
		length := frame.Length()
		c.metrics.FramesRead.Add(1)

		switch op := frame.Opcode(); op {
		case api.OpcodeText, api.OpcodeBinary:
			payload := frame.Payload()
			c.frameOffset += length
			return payload, nil
		case api.OpcodePing:
			payload := frame.Payload()
			c.frameOffset += length
			c.pong(payload)
		case api.OpcodePong:
			c.frameOffset += length
		case api.OpcodeClosing:
			c.frameOffset += length
			c.log.Info("close frame received", zap.Uint64("session", s.id))
			c.listener.OnClose()
			c.Close()
			return nil, nil
		default:
			return nil, c.fail(fmt.Errorf("%w: %d", api.ErrUnknownOpcode, byte(op)))
		}
	}
}

func (c *Client) compact() {
	c.readOffset = copy(c.readBuf, c.readBuf[c.frameOffset:c.readOffset])
	c.frameOffset = 0
}

// pong answers a ping with its own payload.
func (c *Client) pong(payload []byte) {
	if err := c.enqueue(api.OpcodePong, payload); err != nil {
		if ce := c.log.Check(zapcore.DebugLevel, "pong dropped"); ce != nil {
			ce.Write(zap.Error(err))
		}
		return
	}
	c.metrics.PongsQueued.Add(1)
}

// readFailed maps a socket read error to the Poll result.
func (c *Client) readFailed(s *session, err error) error {
	if c.sess.Load() != s {
		// torn down underneath the read
		return nil
	}
	if errors.Is(err, io.EOF) {
		c.log.Info("end of stream", zap.Uint64("session", s.id))
		if c.cfg.AutoReconnect {
			s.ended = true
		} else {
			c.Close()
		}
		return nil
	}
	return fmt.Errorf("hioload-wsc: read: %w", err)
}

// fail closes the client on a protocol violation.
func (c *Client) fail(err error) error {
	c.log.Error("protocol violation", zap.Error(err))
	c.Close()
	return err
}

// Write queues payload as a BINARY frame.
func (c *Client) Write(payload []byte) error {
	return c.enqueue(api.OpcodeBinary, payload)
}

// WriteText queues s as a TEXT frame without copying it to a byte slice first.
func (c *Client) WriteText(s string) error {
	return c.enqueue(api.OpcodeText, unsafe.Slice(unsafe.StringData(s), len(s)))
}

// Ping queues an empty PING frame.
func (c *Client) Ping() error {
	return c.enqueue(api.OpcodePing, nil)
}

// enqueue encodes one frame straight into the next free slot and wakes the
// writer. It never touches the socket.
func (c *Client) enqueue(op api.Opcode, payload []byte) error {
	if c.State() != api.StateOpen {
		return api.ErrIllegalState
	}
	s := c.sess.Load()
	if s == nil {
		return api.ErrIllegalState
	}
	c.pendingOp, c.pendingPayload, c.pendingSession = op, payload, s.id
	err := c.queue.Enqueue(c.fill)
	c.pendingPayload = nil
	if err != nil {
		return err
	}
	c.metrics.FramesQueued.Add(1)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// fillSlot is bound once in New so that enqueue does not allocate a closure.
func (c *Client) fillSlot(slot *concurrency.Slot) error {
	n, err := c.outFrame.Wrap(slot.Buf).Encode(c.pendingOp, c.pendingPayload)
	if err != nil {
		return err
	}
	slot.N = n
	slot.Session = c.pendingSession
	return nil
}
