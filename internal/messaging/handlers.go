// internal/messaging/handlers.go

package messaging

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
)

// Handler exposes the messaging endpoints
type Handler struct {
	service Service
	hub     *Hub
}

// NewHandler creates a new messaging handler
func NewHandler(service Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	conv, err := h.service.StartConversation(r.Context(), userID, req.UserID)
	if errors.Is(err, ErrSelfConversation) {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to start conversation", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, conv, http.StatusOK)
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summaries, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, summaries, http.StatusOK)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.service.ListMessages(r.Context(), mux.Vars(r)["id"], userID, limit)
	if errors.Is(err, ErrNotParticipant) {
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, messages, http.StatusOK)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), mux.Vars(r)["id"], userID, &req)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrNotParticipant):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, ErrMessageNotFound):
		utils.ErrorResponse(w, "Quoted message not found", http.StatusBadRequest)
		return
	case err != nil:
		utils.ErrorResponse(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, msg, http.StatusCreated)
}

func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	msg, err := h.service.EditMessage(r.Context(), mux.Vars(r)["id"], userID, req.Content)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrMessageNotFound):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrNotSender):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		utils.ErrorResponse(w, "Failed to edit message", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, msg, http.StatusOK)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.service.DeleteMessage(r.Context(), mux.Vars(r)["id"], userID)
	switch {
	case errors.Is(err, ErrMessageNotFound):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrNotSender):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		utils.ErrorResponse(w, "Failed to delete message", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Message deleted", http.StatusOK)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.service.MarkRead(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, ErrNotParticipant) {
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to mark read", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Conversation marked read", http.StatusOK)
}
