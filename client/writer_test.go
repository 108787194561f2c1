package client

import (
	"context"
	"net"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/hioload-wsc/api"
	"github.com/momentics/hioload-wsc/core/concurrency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_ImmediatelyAfterConnect(t *testing.T) {
	// One P keeps the writer goroutine from running before the first Write.
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))

	frames := make(chan clientFrame, 1)
	ps := newPipeServer(t, func(conn net.Conn) {
		br, err := acceptUpgrade(conn)
		if err != nil {
			return
		}
		if f, err := readClientFrame(br); err == nil {
			frames <- f
		}
		drainUntilClosed(conn)
	})
	c := newTestClient(t, ps, nil)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Connect(context.Background()))
		require.NoError(t, c.Write([]byte("subscribe")))

		select {
		case f := <-frames:
			assert.Equal(t, api.OpcodeBinary, f.op)
			assert.Equal(t, []byte("subscribe"), f.payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("connection %d: frame accepted by Write never reached the peer (queued=%d written=%d)",
				i, c.Metrics().FramesQueued.Load(), c.Metrics().FramesWritten.Load())
		}
		require.NoError(t, c.Close())
	}
}

func TestWriter_SkipsSlotsOfPreviousSession(t *testing.T) {
	var dial atomic.Int32
	frames := make(chan clientFrame, 4)
	ps := newPipeServer(t, func(conn net.Conn) {
		br, err := acceptUpgrade(conn)
		if err != nil {
			return
		}
		if dial.Add(1) == 1 {
			drainUntilClosed(conn)
			return
		}
		for {
			f, err := readClientFrame(br)
			if err != nil {
				return
			}
			frames <- f
		}
	})
	c := newTestClient(t, ps, nil)

	require.NoError(t, c.Connect(context.Background()))
	stale := c.sess.Load().id
	require.NoError(t, c.Close())
	require.NoError(t, c.Connect(context.Background()))

	// A frame encoded for the first connection and published after its
	// teardown.
	require.NoError(t, c.queue.Enqueue(func(slot *concurrency.Slot) error {
		n, err := c.outFrame.Wrap(slot.Buf).Encode(api.OpcodeText, []byte("stale"))
		slot.N, slot.Session = n, stale
		return err
	}))
	require.NoError(t, c.WriteText("fresh"))

	select {
	case f := <-frames:
		assert.Equal(t, "fresh", string(f.payload))
	case <-time.After(5 * time.Second):
		t.Fatal("frame not received")
	}
	select {
	case f := <-frames:
		t.Fatalf("unexpected frame %q", f.payload)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Eventually(t, func() bool { return c.Metrics().FramesWritten.Load() == 1 }, time.Second, 5*time.Millisecond)
}
