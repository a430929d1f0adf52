package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jose "github.com/go-jose/go-jose/v4"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/config"
	"github.com/pinjam-app/pinjam/internal/store"
	"github.com/pinjam-app/pinjam/internal/testutil"
)

const testClientID = "pinjam"

// fakeIssuer is an in-process OpenID provider. Codes are minted with
// authorize and redeemed once at the token endpoint, which checks the PKCE
// verifier against the challenge from the authorization request.
type fakeIssuer struct {
	srv    *httptest.Server
	key    *rsa.PrivateKey
	mu     sync.Mutex
	grants map[string]fakeGrant
}

type fakeGrant struct {
	challenge string
	claims    map[string]any
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	fi := &fakeIssuer{key: key, grants: map[string]fakeGrant{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                                fi.srv.URL,
			"authorization_endpoint":                fi.srv.URL + "/authorize",
			"token_endpoint":                        fi.srv.URL + "/token",
			"jwks_uri":                              fi.srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("GET /keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key: &key.PublicKey, KeyID: "kunci-1", Algorithm: string(jose.RS256), Use: "sig",
		}}})
	})
	mux.HandleFunc("POST /token", fi.token)
	fi.srv = httptest.NewServer(mux)
	t.Cleanup(fi.srv.Close)
	return fi
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// authorize stands in for the user signing in at the provider.
func (fi *fakeIssuer) authorize(challenge string, claims map[string]any) string {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	code := "kode-" + challenge[:8]
	fi.grants[code] = fakeGrant{challenge: challenge, claims: claims}
	return code
}

func (fi *fakeIssuer) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	fi.mu.Lock()
	grant, ok := fi.grants[r.PostForm.Get("code")]
	delete(fi.grants, r.PostForm.Get("code"))
	fi.mu.Unlock()
	if !ok || auth.PKCEChallenge(r.PostForm.Get("code_verifier")) != grant.challenge {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	now := time.Now()
	claims := map[string]any{
		"iss": fi.srv.URL,
		"aud": testClientID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range grant.claims {
		claims[k] = v
	}
	payload, _ := json.Marshal(claims)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: fi.key, KeyID: "kunci-1"}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	raw, _ := jws.CompactSerialize()
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": "akses",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     raw,
	})
}

type oidcTestEnv struct {
	authTestEnv
	issuer *fakeIssuer
}

func newOIDCTestEnv(t *testing.T) *oidcTestEnv {
	t.Helper()
	fi := newFakeIssuer(t)

	cfg := &config.Config{}
	cfg.OIDC.Issuer = fi.srv.URL
	cfg.OIDC.ClientID = testClientID
	cfg.OIDC.ClientSecret = "rahasia"
	cfg.OIDC.RedirectURL = "http://pinjam.test/auth/oidc/callback"
	cfg.OIDC.GroupsClaim = "groups"
	cfg.OIDC.ClassClaim = "class"
	cfg.OIDC.AdminGroups = []string{"pustakawan"}
	p, err := auth.NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	db := testutil.NewTestDB(t)
	sm := auth.NewSessionManager(db, "sqlite3", time.Hour, false)
	us := store.NewUserStore(db)
	h := auth.NewHandlers(p, sm, us, "", false)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Get("/auth/oidc/login", h.OIDCLogin)
	r.Get("/auth/oidc/callback", h.Callback)
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sm.GetString(r.Context(), auth.SessionUserIDKey)))
	})
	return &oidcTestEnv{authTestEnv: authTestEnv{router: r, handlers: h, users: us}, issuer: fi}
}

// startLogin follows the login redirect and returns the authorization
// request parameters and the pre-auth cookies.
func (e *oidcTestEnv) startLogin(t *testing.T, redirect string) (url.Values, []*http.Cookie) {
	t.Helper()
	w := e.do(t, http.MethodGet, "/auth/oidc/login?redirect="+url.QueryEscape(redirect), nil, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d, want 302", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if !strings.HasPrefix(loc.String(), e.issuer.srv.URL+"/authorize") {
		t.Fatalf("location = %s, want issuer authorize endpoint", loc)
	}
	return loc.Query(), w.Result().Cookies()
}

func TestOIDC_LoginRedirect(t *testing.T) {
	env := newOIDCTestEnv(t)
	q, cookies := env.startLogin(t, "/katalog")

	if q.Get("client_id") != testClientID {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") == "" || q.Get("code_challenge") == "" {
		t.Errorf("missing state or challenge: %v", q)
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Errorf("challenge method = %q, want S256", q.Get("code_challenge_method"))
	}
	if !strings.Contains(q.Get("scope"), "openid") {
		t.Errorf("scope = %q, want openid", q.Get("scope"))
	}
	if len(cookies) != 3 {
		t.Errorf("pre-auth cookies = %d, want 3", len(cookies))
	}
	for _, c := range cookies {
		if !c.HttpOnly {
			t.Errorf("cookie %s not HttpOnly", c.Name)
		}
	}
}

func TestOIDC_CallbackSignsIn(t *testing.T) {
	env := newOIDCTestEnv(t)
	q, cookies := env.startLogin(t, "/katalog")
	code := env.issuer.authorize(q.Get("code_challenge"), map[string]any{
		"sub":    "guru-17",
		"email":  "Budi@Sekolah.id",
		"name":   "Pak Budi",
		"groups": []string{"guru", "pustakawan"},
		"class":  "XII IPA 1",
	})

	w := env.do(t, http.MethodGet, "/auth/oidc/callback?state="+url.QueryEscape(q.Get("state"))+"&code="+code, cookies, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("callback status = %d, want 302; body %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/katalog" {
		t.Errorf("location = %q, want /katalog", loc)
	}

	user, err := env.users.GetByEmail(context.Background(), "Budi@Sekolah.id")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.Provider != env.issuer.srv.URL || user.Subject != "guru-17" {
		t.Errorf("identity = %s/%s", user.Provider, user.Subject)
	}
	if user.Role != store.RoleAdmin {
		t.Errorf("role = %q, want admin from group", user.Role)
	}
	if user.ClassTag != "XII IPA 1" {
		t.Errorf("class tag = %q", user.ClassTag)
	}

	who := env.do(t, http.MethodGet, "/whoami", []*http.Cookie{sessionCookie(t, w)}, nil)
	if who.Body.String() != user.ID {
		t.Errorf("session user = %q, want %q", who.Body.String(), user.ID)
	}
}

func TestOIDC_CallbackWithoutRedirectGoesHome(t *testing.T) {
	env := newOIDCTestEnv(t)
	q, cookies := env.startLogin(t, "")
	code := env.issuer.authorize(q.Get("code_challenge"), map[string]any{
		"sub": "siswa-3", "email": "rina@sekolah.id", "name": "Rina", "groups": "siswa",
	})

	w := env.do(t, http.MethodGet, "/auth/oidc/callback?state="+url.QueryEscape(q.Get("state"))+"&code="+code, cookies, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("callback status = %d, want 302", w.Code)
	}
	user, err := env.users.GetByEmail(context.Background(), "rina@sekolah.id")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.Role != store.RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}
	if loc := w.Header().Get("Location"); loc != auth.HomeFor(user) {
		t.Errorf("location = %q, want %q", loc, auth.HomeFor(user))
	}
}

func TestOIDC_CallbackRejects(t *testing.T) {
	env := newOIDCTestEnv(t)

	t.Run("state mismatch", func(t *testing.T) {
		q, cookies := env.startLogin(t, "")
		code := env.issuer.authorize(q.Get("code_challenge"), map[string]any{"sub": "x", "email": "x@sekolah.id"})
		w := env.do(t, http.MethodGet, "/auth/oidc/callback?state=lain&code="+code, cookies, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("no pre-auth cookies", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/auth/oidc/callback?state=&code=apa", nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("wrong verifier", func(t *testing.T) {
		q, cookies := env.startLogin(t, "")
		code := env.issuer.authorize(q.Get("code_challenge"), map[string]any{"sub": "y", "email": "y@sekolah.id"})
		for _, c := range cookies {
			if c.Name == "__auth_pkce" {
				c.Value = "bukan-verifier-yang-benar"
			}
		}
		w := env.do(t, http.MethodGet, "/auth/oidc/callback?state="+url.QueryEscape(q.Get("state"))+"&code="+code, cookies, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("email of local account", func(t *testing.T) {
		if _, err := env.users.Create(context.Background(), store.NewUser{Email: "andi@sekolah.id", DisplayName: "Andi", PasswordHash: "x"}, ""); err != nil {
			t.Fatalf("create local: %v", err)
		}
		q, cookies := env.startLogin(t, "")
		code := env.issuer.authorize(q.Get("code_challenge"), map[string]any{"sub": "andi-sso", "email": "andi@sekolah.id"})
		w := env.do(t, http.MethodGet, "/auth/oidc/callback?state="+url.QueryEscape(q.Get("state"))+"&code="+code, cookies, nil)
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})
}

func TestOIDC_DisabledReturnsNotFound(t *testing.T) {
	env := newAuthTestEnv(t)
	w := httptest.NewRecorder()
	env.handlers.OIDCLogin(w, httptest.NewRequest(http.MethodGet, "/auth/oidc/login", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
