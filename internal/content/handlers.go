// internal/content/handlers.go

package content

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
	"github.com/unitedhouse/unitedhouse-backend/internal/common/utils"
)

// Handler exposes the content endpoints
type Handler struct {
	service Service
}

// NewHandler creates a new content handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateItem(r.Context(), userID, &req)
	if errors.Is(err, ErrEmptyTitle) {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to create item", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, item, http.StatusCreated)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrItemUnavailable) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load item", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, item, http.StatusOK)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := &ListFilter{
		Kind:        q.Get("kind"),
		CommunityID: q.Get("community_id"),
		AuthorID:    q.Get("author_id"),
		Limit:       limit,
		Offset:      offset,
	}
	items, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list items", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, items, http.StatusOK)
}

func (h *Handler) ListTrending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.ListTrending(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		utils.ErrorResponse(w, "Failed to list trending", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, items, http.StatusOK)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), mux.Vars(r)["id"], userID, req.Title, req.Body)
	switch {
	case errors.Is(err, ErrItemUnavailable):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrNotAuthor):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, ErrEmptyTitle):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		utils.ErrorResponse(w, "Failed to update item", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, item, http.StatusOK)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.service.DeleteItem(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, ErrItemUnavailable) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to delete item", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Item deleted", http.StatusOK)
}

func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		utils.ErrorResponse(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("media")
	if err != nil {
		utils.ErrorResponse(w, "Missing media file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := h.service.UploadMedia(r.Context(), mux.Vars(r)["id"], userID, file, header)
	switch {
	case errors.Is(err, ErrItemUnavailable):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrNotAuthor):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, ErrInvalidMediaType):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		utils.ErrorResponse(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, map[string]string{"media_url": url}, http.StatusOK)
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	score, err := h.service.Vote(r.Context(), mux.Vars(r)["id"], userID, req.Value)
	if errors.Is(err, ErrItemUnavailable) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to vote", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, map[string]int{"score": score}, http.StatusOK)
}

func (h *Handler) RemoveVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	score, err := h.service.RemoveVote(r.Context(), mux.Vars(r)["id"], userID)
	if errors.Is(err, ErrItemUnavailable) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to remove vote", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, map[string]int{"score": score}, http.StatusOK)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	comment, err := h.service.AddComment(r.Context(), mux.Vars(r)["id"], userID, &req)
	switch {
	case errors.Is(err, ErrItemUnavailable):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrReplyDepth):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		utils.ErrorResponse(w, "Failed to add comment", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, comment, http.StatusCreated)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, ErrItemUnavailable) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to list comments", http.StatusInternalServerError)
		return
	}
	utils.SuccessResponse(w, comments, http.StatusOK)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.service.DeleteComment(r.Context(), mux.Vars(r)["commentID"], userID)
	if errors.Is(err, ErrCommentNotFound) {
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to delete comment", http.StatusInternalServerError)
		return
	}
	utils.MessageResponse(w, "Comment deleted", http.StatusOK)
}
