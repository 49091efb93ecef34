// internal/profile/handlers.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
)

// Handler exposes the profile endpoints
type Handler struct {
	service Service
}

// NewHandler creates a new profile handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if errors.Is(err, ErrProfileNotFound) {
		utils.ErrorResponse(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, profile, http.StatusOK)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	profile, err := h.service.GetProfile(r.Context(), id)
	if errors.Is(err, ErrProfileNotFound) {
		utils.ErrorResponse(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, profile, http.StatusOK)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, &req)
	if errors.Is(err, ErrUsernameTaken) {
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, profile, http.StatusOK)
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, err := h.service.SearchUsers(r.Context(), query, limit)
	if err != nil {
		utils.ErrorResponse(w, "Search failed", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, profiles, http.StatusOK)
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.ErrorResponse(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.ErrorResponse(w, "Missing avatar file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.service.UploadAvatar(r.Context(), userID, file, header)
	if errors.Is(err, ErrInvalidImageFormat) {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, map[string]string{"avatar_url": url}, http.StatusOK)
}

func (h *Handler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(20 << 20); err != nil {
		utils.ErrorResponse(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	document, docHeader, err := r.FormFile("document")
	if err != nil {
		utils.ErrorResponse(w, "Missing document file", http.StatusBadRequest)
		return
	}
	defer document.Close()
	selfie, selfieHeader, err := r.FormFile("selfie")
	if err != nil {
		utils.ErrorResponse(w, "Missing selfie file", http.StatusBadRequest)
		return
	}
	defer selfie.Close()

	req, err := h.service.SubmitVerification(r.Context(), userID, document, selfie, docHeader, selfieHeader)
	switch {
	case errors.Is(err, ErrAlreadyVerified), errors.Is(err, ErrVerificationPending):
		utils.ErrorResponse(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, ErrInvalidImageFormat):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		utils.ErrorResponse(w, "Failed to submit verification", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, req, http.StatusCreated)
}

func (h *Handler) ListPendingVerifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	requests, err := h.service.ListPendingVerifications(r.Context(), limit)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list verifications", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, requests, http.StatusOK)
}

func (h *Handler) GetVerificationDocuments(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	docs, err := h.service.GetVerificationDocuments(r.Context(), id)
	if errors.Is(err, ErrVerificationNotFound) {
		utils.ErrorResponse(w, "Verification request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load documents", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, docs, http.StatusOK)
}

func (h *Handler) ReviewVerification(w http.ResponseWriter, r *http.Request) {
	reviewerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := h.service.ReviewVerification(r.Context(), id, reviewerID, req.Approve)
	if errors.Is(err, ErrVerificationNotFound) {
		utils.ErrorResponse(w, "Verification request not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to review verification", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Verification reviewed", http.StatusOK)
}
