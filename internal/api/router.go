// Package api serves the navigation view state as JSON under /api/v1.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/store"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	AuthMiddleware *auth.Middleware
	Notifications  *store.NotificationStore
	OrgName        string
}

// NewRouter creates a chi sub-router for /api/v1. It expects the session
// to be loaded by the parent router.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(jsonContentType)
	r.Use(deps.AuthMiddleware.OptionalUser)

	navs := &navHandler{notifications: deps.Notifications, orgName: deps.OrgName}
	r.Get("/nav/public", navs.Public)
	r.With(requireUser).Get("/nav/side", navs.Side)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found", "not_found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "method_not_allowed")
	})
	return r
}

// jsonContentType sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requireUser rejects requests without a signed-in user with a JSON 401.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
