package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/store"
	"github.com/pinjam-app/pinjam/internal/testutil"
)

type authTestEnv struct {
	router   http.Handler
	handlers *auth.Handlers
	users    *store.UserStore
}

// newAuthTestEnv wires real session storage and a tiny router:
// POST /login signs in a fixed account, POST /logout logs out,
// GET /whoami echoes the session's user id.
func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	sm := auth.NewSessionManager(db, "sqlite3", time.Hour, false)
	us := store.NewUserStore(db)
	h := auth.NewHandlers(nil, sm, us, "pustakawan@sekolah.id", false)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.Authenticate(r.Context(), r.FormValue("email"), r.FormValue("password")); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/logout", h.Logout)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sm.GetString(r.Context(), auth.SessionUserIDKey)))
	})
	return &authTestEnv{router: r, handlers: h, users: us}
}

func (e *authTestEnv) do(t *testing.T, method, target string, cookies []*http.Cookie, hdr http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "pinjam_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("rahasia123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !auth.CheckPassword(hash, "rahasia123") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "salah") {
		t.Error("wrong password accepted")
	}
	if auth.CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		target, want string
	}{
		{"/katalog", "/katalog"},
		{"/dashboard?tab=aktif", "/dashboard?tab=aktif"},
		{"", "/fallback"},
		{"https://evil.example", "/fallback"},
		{"//evil.example", "/fallback"},
		{"/\\evil.example", "/fallback"},
	}
	for _, tt := range tests {
		if got := auth.SafeRedirect(tt.target, "/fallback"); got != tt.want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestHomeFor(t *testing.T) {
	if got := auth.HomeFor(&store.User{Role: store.RoleAdmin}); got != "/admin/dashboard" {
		t.Errorf("admin home = %q", got)
	}
	if got := auth.HomeFor(&store.User{Role: store.RoleUser}); got != "/dashboard" {
		t.Errorf("user home = %q", got)
	}
	if got := auth.HomeFor(nil); got != "/dashboard" {
		t.Errorf("nil home = %q", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := context.Background()

	// Register needs session data in ctx only after validation passes, so
	// invalid input can be checked without a request.
	_, err := env.handlers.Register(ctx, "Andi", "bukan-email", "", "rahasia123")
	if !errors.Is(err, store.ErrEmailInvalid) {
		t.Errorf("err = %v, want ErrEmailInvalid", err)
	}
	_, err = env.handlers.Register(ctx, "Andi", "andi@sekolah.id", "", "pendek")
	if !errors.Is(err, store.ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	env := newAuthTestEnv(t)
	hash, _ := auth.HashPassword("rahasia123")
	u, err := env.users.Create(context.Background(), store.NewUser{Email: "andi@sekolah.id", DisplayName: "Andi", PasswordHash: hash}, "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	w := env.do(t, http.MethodPost, "/login?email=andi@sekolah.id&password=salah", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", w.Code)
	}

	w = env.do(t, http.MethodPost, "/login?email=andi@sekolah.id&password=rahasia123", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("login status = %d, want 204: %s", w.Code, w.Body.String())
	}
	cookie := sessionCookie(t, w)

	w = env.do(t, http.MethodGet, "/whoami", []*http.Cookie{cookie}, nil)
	if w.Body.String() != u.ID {
		t.Fatalf("whoami = %q, want %q", w.Body.String(), u.ID)
	}

	w = env.do(t, http.MethodPost, "/logout", []*http.Cookie{cookie}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("logout status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	// The old cookie no longer resolves to a session.
	w = env.do(t, http.MethodGet, "/whoami", []*http.Cookie{cookie}, nil)
	if w.Body.String() != "" {
		t.Errorf("whoami after logout = %q, want empty", w.Body.String())
	}

	// Logging out again is harmless and still lands on /login.
	w = env.do(t, http.MethodPost, "/logout", []*http.Cookie{cookie}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("second logout = %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLogout_HTMX(t *testing.T) {
	env := newAuthTestEnv(t)
	w := env.do(t, http.MethodPost, "/logout", nil, http.Header{"Hx-Request": {"true"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
}
