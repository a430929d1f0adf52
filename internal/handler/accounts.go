package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/store"
)

// AuthPage is the template data for the login and register forms.
type AuthPage struct {
	BasePage
	DisplayName string
	Email       string
	ClassTag    string
	Redirect    string
	Error       string
	SSO         bool
}

// AccountHandler serves the login and registration forms.
type AccountHandler struct {
	auth   *auth.Handlers
	chrome *Chrome
}

func NewAccountHandler(ah *auth.Handlers, c *Chrome) *AccountHandler {
	return &AccountHandler{auth: ah, chrome: c}
}

// LoginForm serves GET /login.
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		http.Redirect(w, r, auth.HomeFor(user), http.StatusFound)
		return
	}
	render(w, "login.html", AuthPage{
		BasePage: h.chrome.Public(r, "Masuk"),
		Redirect: auth.SafeRedirect(r.URL.Query().Get("redirect"), ""),
		SSO:      h.auth.SSOEnabled(),
	})
}

// Login handles POST /login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	target := auth.SafeRedirect(r.PostFormValue("redirect"), "")

	user, err := h.auth.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		renderStatus(w, http.StatusUnauthorized, "login.html", AuthPage{
			BasePage: h.chrome.Public(r, "Masuk"),
			Email:    email,
			Redirect: target,
			Error:    "Email atau kata sandi salah.",
			SSO:      h.auth.SSOEnabled(),
		})
		return
	}
	if err != nil {
		serverError(w, r, "authenticate", err)
		return
	}
	redirect(w, r, auth.SafeRedirect(target, auth.HomeFor(user)))
}

// RegisterForm serves GET /register.
func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		http.Redirect(w, r, auth.HomeFor(user), http.StatusFound)
		return
	}
	render(w, "register.html", AuthPage{BasePage: h.chrome.Public(r, "Daftar"), SSO: h.auth.SSOEnabled()})
}

// Register handles POST /register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	page := AuthPage{
		DisplayName: strings.TrimSpace(r.PostFormValue("display_name")),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		ClassTag:    strings.TrimSpace(r.PostFormValue("class_tag")),
		SSO:         h.auth.SSOEnabled(),
	}

	user, err := h.auth.Register(r.Context(), page.DisplayName, page.Email, page.ClassTag, r.PostFormValue("password"))
	if err != nil {
		status, msg := registrationError(err)
		if status == http.StatusInternalServerError {
			serverError(w, r, "register", err)
			return
		}
		page.BasePage = h.chrome.Public(r, "Daftar")
		page.Error = msg
		renderStatus(w, status, "register.html", page)
		return
	}
	h.chrome.SetFlash(r.Context(), "success", "Selamat datang, "+user.DisplayName+"!")
	redirect(w, r, auth.HomeFor(user))
}

func registrationError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrDisplayNameRequired):
		return http.StatusUnprocessableEntity, "Nama wajib diisi."
	case errors.Is(err, store.ErrEmailInvalid):
		return http.StatusUnprocessableEntity, "Alamat email tidak valid."
	case errors.Is(err, store.ErrPasswordTooShort):
		return http.StatusUnprocessableEntity, "Kata sandi minimal 8 karakter."
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict, "Email sudah terdaftar."
	}
	return http.StatusInternalServerError, ""
}
