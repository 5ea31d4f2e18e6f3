package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// Hub keeps the set of connected pages and pushes status events to them.
// The last published event is replayed to every page that connects later.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	last []byte

	totalConnections int64
	messagesSent     int64
	droppedClients   int64

	quit    chan struct{}
	running bool
}

// NewHub creates a stopped hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			ctx := client.context()
			// Sends happen under the lock so Stop cannot close the channel
			// in between.
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.sendTo(ctx, client, connectionMessage())
			if h.last != nil {
				h.sendTo(ctx, client, h.last)
			}
			h.mu.Unlock()

			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.InfoContext(client.context(), "client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			var full []*Client
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.messagesSent++
				default:
					full = append(full, client)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()

			for _, client := range full {
				h.drop(client)
			}

			h.logger.Debug("status broadcast",
				slog.Int("client_count", count),
				slog.Int("message_size", len(message)))
		}
	}
}

// Publish broadcasts a status event to every connected page and remembers it
// for pages that connect later.
func (h *Hub) Publish(ctx context.Context, event domain.StatusEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal status event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	h.last = data
	h.mu.Unlock()

	select {
	case h.broadcast <- data:
	case <-h.quit:
	case <-ctx.Done():
		h.logger.WarnContext(ctx, "status event not broadcast", slog.String("error", ctx.Err().Error()))
	}
}

// Register adds a client. It blocks until the hub loop accepts it.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected pages.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns connection counters for the health endpoint.
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int64{
		"active_clients":    int64(len(h.clients)),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_clients":   h.droppedClients,
	}
}

// Stop ends the hub loop and disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return
	}
	h.running = false
	close(h.quit)

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func connectionMessage() []byte {
	data, _ := json.Marshal(domain.StatusEvent{
		Type:      domain.EventConnection,
		Message:   "connected",
		Timestamp: time.Now(),
	})
	return data
}

func (h *Hub) sendTo(ctx context.Context, client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.logger.WarnContext(ctx, "client send buffer full", slog.String("client_id", client.id))
	}
}

// drop disconnects a client whose buffer is full.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.droppedClients++
	}
	h.mu.Unlock()

	h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
		slog.String("client_id", client.id))
}
