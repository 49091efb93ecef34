// internal/messaging/websocket.go

package messaging

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
)

// Upgrader for WebSocket connections
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are handled by the CORS layer in front
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with the
// hub. One connection per user; a new connection replaces the old one.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, userID, h.service)
	h.hub.register <- client
	client.Start()
}
