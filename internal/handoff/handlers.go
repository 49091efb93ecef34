// internal/handoff/handlers.go

package handoff

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
)

// Handler exposes the handoff endpoints. Keys are scoped per user so one
// user's navigation state cannot be read by another.
type Handler struct {
	store Store
}

// NewHandler creates a new handoff handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers the handoff routes
func (h *Handler) RegisterRoutes(router *mux.Router, authMiddleware *auth.Middleware) {
	protected := router.PathPrefix("/api/handoff").Subrouter()
	protected.Use(authMiddleware.Authenticate)
	protected.HandleFunc("/{key}", h.Put).Methods("PUT")
	protected.HandleFunc("/{key}", h.Take).Methods("POST")
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.store.Put(r.Context(), userID+":"+mux.Vars(r)["key"], req.Value); err != nil {
		utils.ErrorResponse(w, "Failed to store value", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Stored", http.StatusOK)
}

func (h *Handler) Take(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	value, err := h.store.Take(r.Context(), userID+":"+mux.Vars(r)["key"])
	if errors.Is(err, ErrNotFound) {
		utils.ErrorResponse(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to read value", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, map[string]string{"value": value}, http.StatusOK)
}
