// File: api/events.go
// Package api defines the lifecycle event sink for hioload-wsc.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Listener receives lifecycle events. Calls are synchronous on the goroutine
// that observed the event: OnConnect and OnClose on the caller, OnWriteError
// on the writer, OnTimeout on the timeout supervisor.
type Listener interface {
	// OnConnect fires once the handshake succeeded and the client is open.
	OnConnect()
	// OnClose fires when the server sends a close frame. No reconnect follows.
	OnClose()
	// OnWriteError fires when the writer fails to flush a frame. It runs on
	// the writer goroutine, which Close joins, so it must not call Close or
	// Reconnect synchronously.
	OnWriteError(err error)
	// OnTimeout fires when no frame arrived within the idle timeout, right
	// before an automatic reconnect.
	OnTimeout()
}

// NopListener implements Listener with no-op methods. Embed it to override
// only the events of interest.
type NopListener struct{}

func (NopListener) OnConnect()         {}
func (NopListener) OnClose()           {}
func (NopListener) OnWriteError(error) {}
func (NopListener) OnTimeout()         {}

// ListenerFuncs adapts optional functions to Listener. Nil fields are no-ops.
type ListenerFuncs struct {
	Connect    func()
	Close      func()
	WriteError func(err error)
	Timeout    func()
}

func (l ListenerFuncs) OnConnect() {
	if l.Connect != nil {
		l.Connect()
	}
}

func (l ListenerFuncs) OnClose() {
	if l.Close != nil {
		l.Close()
	}
}

func (l ListenerFuncs) OnWriteError(err error) {
	if l.WriteError != nil {
		l.WriteError(err)
	}
}

func (l ListenerFuncs) OnTimeout() {
	if l.Timeout != nil {
		l.Timeout()
	}
}
