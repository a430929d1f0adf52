package handler

import (
	"net/http"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/store"
)

// ProfilePage is the template data for the profile page.
type ProfilePage struct {
	BasePage
	Loans    int
	Returned int
}

// ProfileHandler serves the signed-in user's own profile.
type ProfileHandler struct {
	loans  *store.LoanStore
	chrome *Chrome
}

func NewProfileHandler(ls *store.LoanStore, c *Chrome) *ProfileHandler {
	return &ProfileHandler{loans: ls, chrome: c}
}

// Show serves GET /profile.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	loans, err := h.loans.ListByUser(r.Context(), user.ID)
	if err != nil {
		serverError(w, r, "list loans", err)
		return
	}
	data := ProfilePage{BasePage: h.chrome.Side(r, "Profil"), Loans: len(loans)}
	for _, l := range loans {
		if l.Status == store.LoanReturned {
			data.Returned++
		}
	}
	render(w, "profile.html", data)
}
