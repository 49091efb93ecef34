// internal/auth/handlers.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
)

// Handler exposes the auth endpoints
type Handler struct {
	service Service
}

// NewHandler creates a new auth handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers all auth routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/auth").Subrouter()

	api.HandleFunc("/signup", h.SignUp).Methods("POST")
	api.HandleFunc("/signin", h.SignIn).Methods("POST")
	api.HandleFunc("/signout", h.SignOut).Methods("POST")
	api.HandleFunc("/refresh", h.Refresh).Methods("POST")
	api.HandleFunc("/session", h.GetSession).Methods("GET")
	api.HandleFunc("/password-reset", h.RequestPasswordReset).Methods("POST")
	api.HandleFunc("/password-reset/confirm", h.ResetPassword).Methods("POST")
	api.HandleFunc("/confirm", h.ConfirmEmail).Methods("POST")
	api.HandleFunc("/resend-confirmation", h.ResendConfirmation).Methods("POST")
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.service.SignUp(r.Context(), &req)
	if errors.Is(err, ErrEmailTaken) {
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, user, http.StatusCreated)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	tokens, err := h.service.SignIn(r.Context(), &req)
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrEmailNotConfirmed) {
		utils.ErrorResponse(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Sign in failed", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, tokens, http.StatusOK)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.service.SignOut(r.Context(), req.RefreshToken); err != nil {
		utils.ErrorResponse(w, "Sign out failed", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Signed out", http.StatusOK)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if errors.Is(err, ErrInvalidToken) {
		utils.ErrorResponse(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Refresh failed", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, tokens, http.StatusOK)
}

// GetSession implements the "get current session" boundary operation
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) {
		utils.ErrorResponse(w, "No session", http.StatusUnauthorized)
		return
	}

	session, err := h.service.CurrentSession(r.Context(), authHeader[len(prefix):])
	if err != nil {
		utils.ErrorResponse(w, "No session", http.StatusUnauthorized)
		return
	}
	utils.SuccessResponse(w, session, http.StatusOK)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req RequestPasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		utils.ErrorResponse(w, "Failed to request reset", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "If the address is registered, a reset email has been sent", http.StatusOK)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if errors.Is(err, ErrInvalidToken) {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Password updated", http.StatusOK)
}

func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req ConfirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := h.service.ConfirmEmail(r.Context(), req.Token)
	if errors.Is(err, ErrInvalidToken) {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to confirm email", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Email confirmed", http.StatusOK)
}

func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req ResendConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), req.Email); err != nil {
		utils.ErrorResponse(w, "Failed to resend confirmation", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Confirmation email sent", http.StatusOK)
}
