// internal/content/routes.go

package content

import (
	"github.com/gorilla/mux"

	"github.com/unitedhouse/unitedhouse-backend/internal/auth"
)

// RegisterRoutes registers all content routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	public := router.PathPrefix("/api").Subrouter()
	public.Use(authMiddleware.OptionalAuthenticate)
	public.HandleFunc("/content", handler.ListItems).Methods("GET")
	public.HandleFunc("/content/trending", handler.ListTrending).Methods("GET")
	public.HandleFunc("/content/{id}", handler.GetItem).Methods("GET")
	public.HandleFunc("/content/{id}/comments", handler.ListComments).Methods("GET")

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Authenticate)
	protected.HandleFunc("/content", handler.CreateItem).Methods("POST")
	protected.HandleFunc("/content/{id}", handler.UpdateItem).Methods("PUT")
	protected.HandleFunc("/content/{id}", handler.DeleteItem).Methods("DELETE")
	protected.HandleFunc("/content/{id}/media", handler.UploadMedia).Methods("POST")
	protected.HandleFunc("/content/{id}/vote", handler.Vote).Methods("POST")
	protected.HandleFunc("/content/{id}/vote", handler.RemoveVote).Methods("DELETE")
	protected.HandleFunc("/content/{id}/comments", handler.AddComment).Methods("POST")
	protected.HandleFunc("/content/comments/{commentID}", handler.DeleteComment).Methods("DELETE")
}
