package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/store"
)

type contextKey string

const UserContextKey contextKey = "user"

// Middleware provides HTTP middleware for authentication and authorization.
type Middleware struct {
	sessions *scs.SessionManager
	users    *store.UserStore
}

// NewMiddleware creates a new auth Middleware.
func NewMiddleware(sm *scs.SessionManager, us *store.UserStore) *Middleware {
	return &Middleware{sessions: sm, users: us}
}

// loadUser resolves the session's user. A session pointing at a deleted
// user is destroyed.
func (m *Middleware) loadUser(r *http.Request) *store.User {
	userID := m.sessions.GetString(r.Context(), SessionUserIDKey)
	if userID == "" {
		return nil
	}
	user, err := m.users.GetByID(r.Context(), userID)
	if err != nil {
		_ = m.sessions.Destroy(r.Context())
		return nil
	}
	return user
}

// Resolve loads the session named by r's cookie directly, for handlers
// mounted outside LoadAndSave because they hijack the connection. The
// returned context carries the session data; the user is nil when the
// visitor is not signed in. Changes to the session are never written back
// as a cookie.
func (m *Middleware) Resolve(r *http.Request) (context.Context, *store.User) {
	var token string
	if c, err := r.Cookie(m.sessions.Cookie.Name); err == nil {
		token = c.Value
	}
	ctx, err := m.sessions.Load(r.Context(), token)
	if err != nil {
		slog.WarnContext(r.Context(), "load session", slog.Any("error", err))
		return r.Context(), nil
	}
	return ctx, m.loadUser(r.WithContext(ctx))
}

// Provider returns the nav.SessionProvider for user's session.
func (m *Middleware) Provider(user *store.User) nav.SessionProvider {
	return NewSessions(m.sessions, user)
}

// RequireAuth redirects to /login if no valid session exists.
// On success, sets the *store.User on the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := m.loadUser(r)
		if user == nil {
			http.Redirect(w, r, "/login?redirect="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// OptionalUser sets the user on the context when a valid session exists and
// passes the request through either way.
func (m *Middleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := m.loadUser(r); user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns a middleware that requires the user to have the given role.
// Must be used after RequireAuth.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil || user.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext retrieves the authenticated user from the context.
func UserFromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(UserContextKey).(*store.User)
	return u
}
