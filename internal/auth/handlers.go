package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/store"
)

const (
	cookieState        = "__auth_state"
	cookieCodeVerifier = "__auth_pkce"
	cookieRedirect     = "__auth_redirect"
)

// Handlers provides account operations and the HTTP handlers for SSO and
// logout. provider is nil when SSO is not configured.
type Handlers struct {
	provider   *Provider
	sessions   *scs.SessionManager
	users      *store.UserStore
	adminEmail string
	secure     bool
}

// NewHandlers creates a new Handlers with the given dependencies.
func NewHandlers(p *Provider, sm *scs.SessionManager, us *store.UserStore, adminEmail string, secure bool) *Handlers {
	return &Handlers{provider: p, sessions: sm, users: us, adminEmail: adminEmail, secure: secure}
}

// SSOEnabled reports whether OIDC login is available.
func (h *Handlers) SSOEnabled() bool { return h.provider != nil }

// Authenticate checks an email/password pair and starts a session.
func (h *Handlers) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	user, err := h.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if err := StartSession(ctx, h.sessions, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Register validates the form, creates a local account, and starts a session.
func (h *Handlers) Register(ctx context.Context, displayName, email, classTag, password string) (*store.User, error) {
	displayName = strings.TrimSpace(displayName)
	email = strings.TrimSpace(email)
	if err := store.ValidateRegistration(displayName, email, password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := h.users.Create(ctx, store.NewUser{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		ClassTag:     strings.TrimSpace(classTag),
	}, h.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := StartSession(ctx, h.sessions, user); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "account registered", slog.String("user_id", user.ID), slog.String("role", user.Role))
	return user, nil
}

// HomeFor returns the dashboard path for user's role.
func HomeFor(user *store.User) string {
	if user != nil && user.IsAdmin() {
		return nav.PathAdminDashboard
	}
	return nav.PathDashboard
}

// SafeRedirect returns target when it is a local path, or fallback.
func SafeRedirect(target, fallback string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}
	return fallback
}

// OIDCLogin initiates the OIDC authorization code flow with PKCE.
func (h *Handlers) OIDCLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.NotFound(w, r)
		return
	}
	state, err := GenerateState()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	verifier, challenge, err := GeneratePKCE()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.setPreAuthCookie(w, cookieState, state)
	h.setPreAuthCookie(w, cookieCodeVerifier, verifier)
	h.setPreAuthCookie(w, cookieRedirect, SafeRedirect(r.URL.Query().Get("redirect"), ""))

	http.Redirect(w, r, h.provider.AuthCodeURL(state, challenge), http.StatusFound)
}

// Callback handles the OIDC provider redirect after authentication.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.NotFound(w, r)
		return
	}
	stateCookie, err := r.Cookie(cookieState)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	verifierCookie, err := r.Cookie(cookieCodeVerifier)
	if err != nil {
		http.Error(w, "missing code verifier", http.StatusBadRequest)
		return
	}

	identity, err := h.provider.Identify(r.Context(), r.URL.Query().Get("code"), verifierCookie.Value)
	if err != nil {
		slog.WarnContext(r.Context(), "oidc sign-in failed", slog.Any("error", err))
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Upsert(r.Context(), identity, h.adminEmail)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			http.Error(w, "email already registered with a password account", http.StatusConflict)
			return
		}
		slog.ErrorContext(r.Context(), "oidc user upsert failed", slog.Any("error", err))
		http.Error(w, "user record error", http.StatusInternalServerError)
		return
	}

	if err := StartSession(r.Context(), h.sessions, user); err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	clearCookie(w, cookieState)
	clearCookie(w, cookieCodeVerifier)

	redirect := HomeFor(user)
	if c, err := r.Cookie(cookieRedirect); err == nil && c.Value != "" {
		redirect = SafeRedirect(c.Value, redirect)
	}
	clearCookie(w, cookieRedirect)

	http.Redirect(w, r, redirect, http.StatusFound)
}

// Logout ends the session through the side navbar's logout action and
// redirects to the login page. HTMX requests get an HX-Redirect instead of
// a 302 so the whole page is replaced.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	navigator := nav.NavigatorFunc(func(path string) {
		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", path)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, path, http.StatusFound)
	})
	side := nav.NewSideNavbar(nav.SideProps{Session: NavSession(user)}, NewSessions(h.sessions, user), navigator)
	side.Logout(r.Context())
}

func (h *Handlers) setPreAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   300, // 5 minutes
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}
