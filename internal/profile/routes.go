// internal/profile/routes.go

package profile

import (
	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
)

// RegisterRoutes registers all profile routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Authenticate)

	protected.HandleFunc("/profile", handler.GetMyProfile).Methods("GET")
	protected.HandleFunc("/profile", handler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/profile/avatar", handler.UploadAvatar).Methods("POST")
	protected.HandleFunc("/users/{id}/profile", handler.GetProfile).Methods("GET")
	protected.HandleFunc("/users/search", handler.SearchUsers).Methods("GET")

	// Identity verification
	protected.HandleFunc("/verification", handler.SubmitVerification).Methods("POST")
	protected.HandleFunc("/admin/verifications", handler.ListPendingVerifications).Methods("GET")
	protected.HandleFunc("/admin/verifications/{id}/documents", handler.GetVerificationDocuments).Methods("GET")
	protected.HandleFunc("/admin/verifications/{id}/review", handler.ReviewVerification).Methods("POST")
}
