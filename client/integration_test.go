// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

// integration_test.go - End-to-end tests against a gorilla/websocket peer.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/momentics/hioload-wsc/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func echoHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}
}

// pollPayload polls until a data frame arrives. The client is closed after
// five seconds so that a Poll blocked on the socket returns.
func pollPayload(t *testing.T, c *Client) []byte {
	t.Helper()
	timer := time.AfterFunc(5*time.Second, func() { c.Close() })
	defer timer.Stop()
	for c.State() == api.StateOpen {
		p, err := c.Poll()
		require.NoError(t, err)
		if p != nil {
			return bytes.Clone(p)
		}
	}
	t.Fatal("no frame received before the client was closed")
	return nil
}

func exerciseEcho(t *testing.T, c *Client) {
	t.Helper()
	require.NoError(t, c.Connect(context.Background()))

	require.NoError(t, c.WriteText("hioload-wsc integration!"))
	assert.Equal(t, "hioload-wsc integration!", string(pollPayload(t, c)))

	big := bytes.Repeat([]byte{0xAB, 0xCD}, 700)
	require.NoError(t, c.Write(big))
	assert.Equal(t, big, pollPayload(t, c))

	// gorilla answers the ping; the pong is consumed inside Poll.
	require.NoError(t, c.Ping())
	require.NoError(t, c.WriteText("after ping"))
	assert.Equal(t, "after ping", string(pollPayload(t, c)))

	assert.Eventually(t, func() bool {
		return c.Metrics().FramesWritten.Load() == 4
	}, 5*time.Second, 5*time.Millisecond)
}

func TestIntegration_GorillaEcho(t *testing.T) {
	server := httptest.NewServer(echoHandler(t))
	defer server.Close()

	c, err := NewBuilder().
		WithURL("ws" + strings.TrimPrefix(server.URL, "http") + "/echo").
		Build()
	require.NoError(t, err)
	defer c.Close()

	exerciseEcho(t, c)
}

func TestIntegration_GorillaEchoTLS(t *testing.T) {
	server := httptest.NewTLSServer(echoHandler(t))
	defer server.Close()

	roots := x509.NewCertPool()
	roots.AddCert(server.Certificate())
	c, err := NewBuilder().
		WithURL("wss" + strings.TrimPrefix(server.URL, "https") + "/echo").
		WithTLSConfig(&tls.Config{RootCAs: roots}).
		Build()
	require.NoError(t, err)
	defer c.Close()

	exerciseEcho(t, c)
}
