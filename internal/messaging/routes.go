// internal/messaging/routes.go

package messaging

import (
	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
)

// RegisterRoutes registers all messaging routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	// WebSocket endpoint
	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.HandleFunc("", handler.HandleWebSocket).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/conversations", handler.ListConversations).Methods("GET")
	api.HandleFunc("/conversations", handler.StartConversation).Methods("POST")
	api.HandleFunc("/conversations/{id}/messages", handler.ListMessages).Methods("GET")
	api.HandleFunc("/conversations/{id}/messages", handler.SendMessage).Methods("POST")
	api.HandleFunc("/conversations/{id}/read", handler.MarkRead).Methods("POST")
	api.HandleFunc("/messages/{id}", handler.EditMessage).Methods("PUT")
	api.HandleFunc("/messages/{id}", handler.DeleteMessage).Methods("DELETE")
}
