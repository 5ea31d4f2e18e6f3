package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(infrastructure.NewLogger(io.Discard, "debug"))
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

// dialHub serves hub over a test server and connects one page to it.
func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeWS(hub, conn, "trace-test", nil)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.StatusEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.StatusEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub := newTestHub(t)
	first := dialHub(t, hub)
	second := dialHub(t, hub)

	assert.Equal(t, domain.EventConnection, readEvent(t, first).Type)
	assert.Equal(t, domain.EventConnection, readEvent(t, second).Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), domain.StatusEvent{
		Type:      domain.EventStatus,
		State:     domain.StateRendered,
		Message:   "Upload and consolidation of 1 of 2 file(s) succeeded",
		Files:     2,
		Succeeded: 1,
	})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, domain.EventStatus, event.Type)
		assert.Equal(t, domain.StateRendered, event.State)
		assert.Equal(t, 2, event.Files)
		assert.Equal(t, 1, event.Succeeded)
		assert.False(t, event.Timestamp.IsZero())
	}
}

func TestHub_ReplaysLastEventOnConnect(t *testing.T) {
	hub := newTestHub(t)

	hub.Publish(context.Background(), domain.StatusEvent{Type: domain.EventStatus, State: domain.StateError, Message: "No valid data found after consolidation"})

	conn := dialHub(t, hub)
	assert.Equal(t, domain.EventConnection, readEvent(t, conn).Type)

	replayed := readEvent(t, conn)
	assert.Equal(t, domain.StateError, replayed.State)
	assert.Equal(t, "No valid data found after consolidation", replayed.Message)
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub := newTestHub(t)
	conn := dialHub(t, hub)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), hub.Stats()["total_connections"])
}

func TestHub_DropsClientWithFullBuffer(t *testing.T) {
	hub := newTestHub(t)

	slow := &Client{
		hub:    hub,
		send:   make(chan []byte),
		id:     "slow",
		logger: infrastructure.NewLogger(io.Discard, "debug"),
	}
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), domain.StatusEvent{Type: domain.EventStatus})

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), hub.Stats()["dropped_clients"])
}

func TestHub_StartStopIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		// Publishing to a stopped hub must not block once the buffer is full.
		for i := 0; i < 64; i++ {
			hub.Publish(context.Background(), domain.StatusEvent{Type: domain.EventStatus})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stopped hub")
	}
}

func TestHub_PublishHonorsContext(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Never started: the buffer fills and the cancelled context unblocks.
	for i := 0; i < 32; i++ {
		hub.Publish(ctx, domain.StatusEvent{Type: domain.EventStatus})
	}
}
