package handler

import (
	"log/slog"
	"net/http"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/store"
)

// LandingPage is the template data for the landing page.
type LandingPage struct {
	BasePage
	Featured  []*store.Item
	ItemCount int
}

// LandingHandler serves the public marketing pages.
type LandingHandler struct {
	items  *store.ItemStore
	chrome *Chrome
}

func NewLandingHandler(is *store.ItemStore, c *Chrome) *LandingHandler {
	return &LandingHandler{items: is, chrome: c}
}

const featuredItems = 3

// Index serves GET /. Signed-in visitors are sent to their dashboard.
func (h *LandingHandler) Index(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		http.Redirect(w, r, auth.HomeFor(user), http.StatusFound)
		return
	}
	items, err := h.items.List(r.Context())
	if err != nil {
		serverError(w, r, "list items", err)
		return
	}
	data := LandingPage{BasePage: h.chrome.Public(r, "Beranda"), ItemCount: len(items)}
	if len(items) > featuredItems {
		items = items[:featuredItems]
	}
	data.Featured = items
	render(w, "landing.html", data)
}

// About serves GET /tentang.
func (h *LandingHandler) About(w http.ResponseWriter, r *http.Request) {
	render(w, "about.html", h.chrome.Public(r, "Tentang"))
}

type notFoundPage struct {
	BasePage
	Path string
}

// NotFound renders the 404 page in the layout matching the visitor.
func (h *LandingHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	notFound(w, r, h.chrome)
}

func notFound(w http.ResponseWriter, r *http.Request, c *Chrome) {
	base := c.Public(r, "Tidak ditemukan")
	if auth.UserFromContext(r.Context()) != nil {
		base = c.Side(r, "Tidak ditemukan")
	}
	data := notFoundPage{BasePage: base, Path: r.URL.Path}
	if isHTMX(r) {
		renderPageFragmentStatus(w, http.StatusNotFound, "404.html", "content", data)
		return
	}
	renderStatus(w, http.StatusNotFound, "404.html", data)
}

func serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), op, slog.Any("error", err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// redirect sends the browser to path: an HX-Redirect for HTMX requests,
// otherwise a 303.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
