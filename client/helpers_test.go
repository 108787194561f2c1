package client

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-wsc/api"
	"github.com/stretchr/testify/require"
)

const upgradeResponse = "HTTP/1.1 101 Switching Protocols\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n" +
	"\r\n"

// pipeServer hands every dialed connection to serve over an in-memory pipe.
type pipeServer struct {
	serve func(conn net.Conn)
	dials atomic.Int32
	wg    sync.WaitGroup
}

func newPipeServer(t *testing.T, serve func(conn net.Conn)) *pipeServer {
	t.Helper()
	ps := &pipeServer{serve: serve}
	t.Cleanup(ps.wg.Wait)
	return ps
}

func (ps *pipeServer) CreateSocket(_ context.Context, _ string, _ int) (net.Conn, error) {
	ps.dials.Add(1)
	client, server := net.Pipe()
	ps.wg.Add(1)
	go func() {
		defer ps.wg.Done()
		defer server.Close()
		ps.serve(server)
	}()
	return client, nil
}

// readUpgrade consumes the upgrade request.
func readUpgrade(conn net.Conn) (*bufio.Reader, *http.Request, error) {
	br := bufio.NewReader(conn)
	req, err := http.ReadRequest(br)
	return br, req, err
}

// acceptUpgrade consumes the upgrade request and answers with a 101 head
// followed by extra.
func acceptUpgrade(conn net.Conn, extra ...[]byte) (*bufio.Reader, error) {
	br, _, err := readUpgrade(conn)
	if err != nil {
		return nil, err
	}
	out := []byte(upgradeResponse)
	for _, e := range extra {
		out = append(out, e...)
	}
	_, err = conn.Write(out)
	return br, err
}

// drainUntilClosed blocks until the client closes its end.
func drainUntilClosed(conn net.Conn) {
	_, _ = io.Copy(io.Discard, conn)
}

// serverFrame builds an unmasked frame the way a server sends it.
func serverFrame(fin bool, op api.Opcode, payload []byte) []byte {
	b0 := byte(op)
	if fin {
		b0 |= 0x80
	}
	out := []byte{b0}
	switch n := len(payload); {
	case n <= 125:
		out = append(out, byte(n))
	case n <= 0xFFFF:
		out = append(out, 126, 0, 0)
		binary.BigEndian.PutUint16(out[2:], uint16(n))
	default:
		out = append(out, 127, 0, 0, 0, 0, 0, 0, 0, 0)
		binary.BigEndian.PutUint64(out[2:], uint64(n))
	}
	return append(out, payload...)
}

type clientFrame struct {
	op      api.Opcode
	fin     bool
	masked  bool
	payload []byte
}

// readClientFrame decodes one frame sent by the client and removes its mask.
func readClientFrame(r io.Reader) (clientFrame, error) {
	var f clientFrame
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return f, err
	}
	f.op = api.Opcode(hdr[0] & 0x0F)
	f.fin = hdr[0]&0x80 != 0
	f.masked = hdr[1]&0x80 != 0

	n := uint64(hdr[1] & 0x7F)
	switch n {
	case 126:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return f, err
		}
		n = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return f, err
		}
		n = binary.BigEndian.Uint64(ext[:])
	}

	var key [4]byte
	if f.masked {
		if _, err := io.ReadFull(r, key[:]); err != nil {
			return f, err
		}
	}
	f.payload = make([]byte, n)
	if _, err := io.ReadFull(r, f.payload); err != nil {
		return f, err
	}
	for i := range f.payload {
		f.payload[i] ^= key[i%4]
	}
	return f, nil
}

// recordingListener counts lifecycle events and keeps their times.
type recordingListener struct {
	connects    atomic.Int32
	closes      atomic.Int32
	timeouts    atomic.Int32
	writeErrors chan error

	mu        sync.Mutex
	connectAt []time.Time
	timeoutAt []time.Time
}

func newRecordingListener() *recordingListener {
	return &recordingListener{writeErrors: make(chan error, 16)}
}

func (l *recordingListener) OnConnect() {
	l.mu.Lock()
	l.connectAt = append(l.connectAt, time.Now())
	l.mu.Unlock()
	l.connects.Add(1)
}

func (l *recordingListener) OnClose() { l.closes.Add(1) }

func (l *recordingListener) OnTimeout() {
	l.mu.Lock()
	l.timeoutAt = append(l.timeoutAt, time.Now())
	l.mu.Unlock()
	l.timeouts.Add(1)
}

// history returns copies of the recorded connect and timeout times.
func (l *recordingListener) history() (connects, timeouts []time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Time(nil), l.connectAt...), append([]time.Time(nil), l.timeoutAt...)
}

func (l *recordingListener) OnWriteError(err error) {
	select {
	case l.writeErrors <- err:
	default:
	}
}

// newTestClient builds a client over ps and registers Close as cleanup.
func newTestClient(t *testing.T, ps *pipeServer, configure func(*Builder)) *Client {
	t.Helper()
	b := NewBuilder().WithURL("ws://feed.test:9000/stream").WithSocketFactory(ps)
	if configure != nil {
		configure(b)
	}
	c, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}
