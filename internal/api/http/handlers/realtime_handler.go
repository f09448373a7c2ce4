package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/spec-kit/civicpulse/internal/realtime"
)

// RealtimeHandler upgrades connections and attaches them to the hub.
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Upgrade gates non-websocket requests off the /ws route.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve registers the connection and blocks until the client goes away.
// Inbound frames are drained and discarded; the stream is broadcast-only.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.hub.Register(conn)
		defer func() {
			h.hub.Unregister(conn)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
