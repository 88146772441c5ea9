package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every handler into the API routes
func NewRouter(authHandler *AuthHandler, familyHandler *FamilyHandler, documentHandler *DocumentHandler, middleware *Middleware) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Auth
	r.HandleFunc("/api/register", middleware.RateLimit(authHandler.Register)).Methods(http.MethodPost)
	r.HandleFunc("/api/login", middleware.RateLimit(authHandler.Login)).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/api/me", middleware.RequireAuth(authHandler.Me)).Methods(http.MethodGet)
	r.HandleFunc("/auth/{provider}/start", middleware.RateLimit(authHandler.StartOAuth)).Methods(http.MethodGet)
	r.HandleFunc("/auth/{provider}/callback", authHandler.OAuthCallback).Methods(http.MethodGet)

	// Families
	r.HandleFunc("/api/families", middleware.RequireAuth(familyHandler.Create)).Methods(http.MethodPost)
	r.HandleFunc("/api/family", middleware.RequireAuth(familyHandler.MyFamily)).Methods(http.MethodGet)
	r.HandleFunc("/api/families/join", middleware.RequireAuth(familyHandler.Join)).Methods(http.MethodPost)
	r.HandleFunc("/api/families/{id}", middleware.RequireAuth(familyHandler.Get)).Methods(http.MethodGet)
	r.HandleFunc("/api/families/{id}", middleware.RequireAuth(familyHandler.Delete)).Methods(http.MethodDelete)
	r.HandleFunc("/api/families/{id}/leave", middleware.RequireAuth(familyHandler.Leave)).Methods(http.MethodPost)
	r.HandleFunc("/api/families/{id}/members/{userID}", middleware.RequireAuth(familyHandler.RemoveMember)).Methods(http.MethodDelete)
	r.HandleFunc("/api/families/{id}/invite", middleware.RequireAuth(familyHandler.SendInvite)).Methods(http.MethodPost)
	r.HandleFunc("/api/invites/validate", familyHandler.ValidateInvite).Methods(http.MethodPost)

	// Documents
	r.HandleFunc("/api/documents", middleware.RequireAuth(documentHandler.Create)).Methods(http.MethodPost)
	r.HandleFunc("/api/documents", middleware.RequireAuth(documentHandler.List)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/family", middleware.RequireAuth(documentHandler.ListFamily)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id}", middleware.RequireAuth(documentHandler.Get)).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id}", middleware.RequireAuth(documentHandler.Update)).Methods(http.MethodPatch)
	r.HandleFunc("/api/documents/{id}", middleware.RequireAuth(documentHandler.Delete)).Methods(http.MethodDelete)
	r.HandleFunc("/api/documents/{id}/share", middleware.RequireAuth(documentHandler.Share)).Methods(http.MethodPost)
	r.HandleFunc("/api/documents/{id}/unshare", middleware.RequireAuth(documentHandler.Unshare)).Methods(http.MethodPost)

	return r
}
