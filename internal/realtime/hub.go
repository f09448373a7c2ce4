// Package realtime fans out domain events to connected websocket clients.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn is the subset of a websocket connection the hub needs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub tracks live connections and broadcasts JSON payloads to all of them.
// Delivery is best effort: a connection that fails a write is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[Conn]struct{}
	logger  *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[Conn]struct{}), logger: logger}
}

// Register adds a connection to the broadcast set.
func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

// Unregister removes a connection without closing it.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast marshals payload once and writes it to every client. Clients
// whose write fails are closed and removed.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("broadcast marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("dropping slow websocket client", zap.Error(err))
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}
