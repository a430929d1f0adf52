package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/metrics"
	"github.com/pinjam-app/pinjam/internal/store"
)

// CatalogPage is the template data for the catalog list.
type CatalogPage struct {
	BasePage
	Items []*store.Item
	Query string
}

// ItemPage is the template data for one catalog entry.
type ItemPage struct {
	BasePage
	Item *store.Item
}

// CatalogHandler serves the catalog and loan requests.
type CatalogHandler struct {
	items  *store.ItemStore
	loans  *store.LoanStore
	chrome *Chrome
}

func NewCatalogHandler(is *store.ItemStore, ls *store.LoanStore, c *Chrome) *CatalogHandler {
	return &CatalogHandler{items: is, loans: ls, chrome: c}
}

// Index serves GET /katalog. Supports ?q= search; HTMX requests get only
// the result list.
func (h *CatalogHandler) Index(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := h.items.Search(r.Context(), q)
	if err != nil {
		serverError(w, r, "search items", err)
		return
	}
	data := CatalogPage{BasePage: h.chrome.Public(r, "Katalog"), Items: items, Query: q}
	if isHTMX(r) {
		renderPageFragment(w, "katalog/index.html", "item_list", data)
		return
	}
	render(w, "katalog/index.html", data)
}

// Detail serves GET /katalog/{id}.
func (h *CatalogHandler) Detail(w http.ResponseWriter, r *http.Request) {
	item, err := h.items.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, r, h.chrome)
		return
	}
	if err != nil {
		serverError(w, r, "get item", err)
		return
	}
	render(w, "katalog/detail.html", ItemPage{BasePage: h.chrome.Public(r, item.Title), Item: item})
}

// Borrow handles POST /katalog/{id}/pinjam: it opens a pending loan for
// the signed-in user.
func (h *CatalogHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	_, err := h.loans.Request(r.Context(), id, user.ID)
	switch {
	case err == nil:
		metrics.LoanTransitionsTotal.WithLabelValues(store.LoanPending).Inc()
		h.chrome.SetFlash(r.Context(), "success", "Permintaan peminjaman terkirim. Tunggu persetujuan petugas.")
		redirect(w, r, auth.HomeFor(user))
	case errors.Is(err, store.ErrNotFound):
		notFound(w, r, h.chrome)
	case errors.Is(err, store.ErrOutOfStock):
		h.chrome.SetFlash(r.Context(), "error", "Stok sedang habis.")
		redirect(w, r, "/katalog/"+id)
	case errors.Is(err, store.ErrLoanExists):
		h.chrome.SetFlash(r.Context(), "error", "Kamu sudah meminjam atau mengajukan barang ini.")
		redirect(w, r, "/katalog/"+id)
	default:
		serverError(w, r, "request loan", err)
	}
}
