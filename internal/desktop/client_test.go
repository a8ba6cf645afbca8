package desktop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrapbeep.click/internal/trigger"
)

// newDesktopServer starts a websocket server that runs handle for every
// connection.
func newDesktopServer(t *testing.T, handle func(conn *websocket.Conn, n int32)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var connections atomic.Int32
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, connections.Add(1))
	}))
	t.Cleanup(server.Close)
	return server, &connections
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientSubscribesAndDispatches(t *testing.T) {
	subscribed := make(chan SubscribeRequest, 1)
	server, _ := newDesktopServer(t, func(conn *websocket.Conn, _ int32) {
		var req SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"eAgentWrapup","data":{"id":7}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3})
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	})

	client := NewClient(ClientConfig{URL: wsURL(server), Subscribe: []string{"eAgentWrapup"}}, nil)
	events := make(chan trigger.Event, 4)
	client.AddEventListener("eAgentWrapup", func(ev trigger.Event) { events <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	select {
	case req := <-subscribed:
		assert.Equal(t, "subscribe", req.Type)
		assert.Equal(t, []string{"eAgentWrapup"}, req.Events)
	case <-time.After(5 * time.Second):
		t.Fatal("no subscribe request received")
	}

	select {
	case ev := <-events:
		assert.Equal(t, "eAgentWrapup", ev.Name)
		assert.JSONEq(t, `{"id":7}`, string(ev.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("event not dispatched")
	}
	assert.True(t, client.IsConnected())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, client.IsConnected())
}

func TestClientReconnects(t *testing.T) {
	server, connections := newDesktopServer(t, func(conn *websocket.Conn, n int32) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"eAgentWrapup"}`))
		if n > 1 {
			_, _, _ = conn.ReadMessage()
		}
		// first connection drops immediately
	})

	client := NewClient(ClientConfig{URL: wsURL(server), ReconnectDelay: 10 * time.Millisecond}, nil)
	var received atomic.Int32
	client.AddEventListener("eAgentWrapup", func(trigger.Event) { received.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	require.Eventually(t, func() bool {
		return connections.Load() >= 2 && received.Load() >= 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestClientRequiresURL(t *testing.T) {
	client := NewClient(ClientConfig{}, nil)
	assert.Error(t, client.Run(context.Background()))
}
