package handler

import (
	"net/http"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/notify"
	"github.com/pinjam-app/pinjam/internal/store"
)

// DashboardPage is the template data for the borrower dashboard.
type DashboardPage struct {
	BasePage
	Loans   []*store.LoanView
	Pending int
	Active  int
}

// NotificationsPage is the template data for the notification list.
type NotificationsPage struct {
	BasePage
	Notifications []*store.Notification
}

// DashboardHandler serves the pages of a signed-in borrower.
type DashboardHandler struct {
	loans         *store.LoanStore
	notifications *store.NotificationStore
	hub           *notify.Hub
	chrome        *Chrome
}

func NewDashboardHandler(ls *store.LoanStore, ns *store.NotificationStore, hub *notify.Hub, c *Chrome) *DashboardHandler {
	return &DashboardHandler{loans: ls, notifications: ns, hub: hub, chrome: c}
}

// Show serves GET /dashboard with the user's loans, newest first.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	loans, err := h.loans.ListByUser(r.Context(), user.ID)
	if err != nil {
		serverError(w, r, "list loans", err)
		return
	}
	data := DashboardPage{BasePage: h.chrome.Side(r, "Dasbor"), Loans: loans}
	for _, l := range loans {
		switch l.Status {
		case store.LoanPending:
			data.Pending++
		case store.LoanActive:
			data.Active++
		}
	}
	render(w, "dashboard.html", data)
}

// Notifications serves GET /notifications. Listing marks every
// notification read; open pages of the same user drop their badge.
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	list, err := h.notifications.ListByUser(r.Context(), user.ID)
	if err != nil {
		serverError(w, r, "list notifications", err)
		return
	}
	if err := h.notifications.MarkAllRead(r.Context(), user.ID); err != nil {
		serverError(w, r, "mark notifications read", err)
		return
	}
	if h.hub != nil {
		h.hub.Publish(user.ID, 0)
	}
	render(w, "notifications.html", NotificationsPage{BasePage: h.chrome.Side(r, "Notifikasi"), Notifications: list})
}
