// internal/community/handlers.go

package community

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
)

// Handler exposes the community endpoints
type Handler struct {
	service Service
}

// NewHandler creates a new community handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers all community routes
func (h *Handler) RegisterRoutes(router *mux.Router, authMiddleware *auth.Middleware) {
	public := router.PathPrefix("/api").Subrouter()
	public.HandleFunc("/communities", h.List).Methods("GET")
	public.HandleFunc("/communities/{id}", h.Get).Methods("GET")
	public.HandleFunc("/communities/{id}/members", h.ListMembers).Methods("GET")

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Authenticate)
	protected.HandleFunc("/communities", h.Create).Methods("POST")
	protected.HandleFunc("/communities/{id}/join", h.Join).Methods("POST")
	protected.HandleFunc("/communities/{id}/leave", h.Leave).Methods("POST")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.service.Create(r.Context(), userID, &req)
	if errors.Is(err, ErrNameTaken) {
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to create community", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, c, http.StatusCreated)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrCommunityNotFound) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load community", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, c, http.StatusOK)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	communities, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list communities", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, communities, http.StatusOK)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.service.Join(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, ErrCommunityNotFound) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to join community", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Joined community", http.StatusOK)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Leave(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		utils.ErrorResponse(w, "Failed to leave community", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Left community", http.StatusOK)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	members, err := h.service.ListMembers(r.Context(), mux.Vars(r)["id"], limit)
	if errors.Is(err, ErrCommunityNotFound) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to list members", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, members, http.StatusOK)
}
