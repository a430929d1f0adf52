package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/metrics"
	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/notify"
	"github.com/pinjam-app/pinjam/internal/store"
)

// AdminHandler serves the librarian views.
type AdminHandler struct {
	items         *store.ItemStore
	users         *store.UserStore
	loans         *store.LoanStore
	notifications *store.NotificationStore
	hub           *notify.Hub
	chrome        *Chrome
}

func NewAdminHandler(is *store.ItemStore, us *store.UserStore, ls *store.LoanStore, ns *store.NotificationStore, hub *notify.Hub, c *Chrome) *AdminHandler {
	return &AdminHandler{items: is, users: us, loans: ls, notifications: ns, hub: hub, chrome: c}
}

// AdminDashboardPage is the template data for the admin overview.
type AdminDashboardPage struct {
	BasePage
	ItemCount    int
	UserCount    int
	PendingCount int
	ActiveCount  int
}

// AdminLoansPage is the template data for the loan queue.
type AdminLoansPage struct {
	BasePage
	Loans  []*store.LoanView
	Status string
}

// AdminUsersPage is the template data for the user management list.
type AdminUsersPage struct {
	BasePage
	Users []*store.User
}

var loanFilters = map[string]bool{
	"":                 true,
	store.LoanPending:  true,
	store.LoanActive:   true,
	store.LoanReturned: true,
	store.LoanRejected: true,
}

// Dashboard serves GET /admin/dashboard with summary counts.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := AdminDashboardPage{BasePage: h.chrome.Side(r, "Dasbor Admin")}
	var err error
	if data.ItemCount, err = h.items.Count(ctx); err != nil {
		serverError(w, r, "count items", err)
		return
	}
	if data.UserCount, err = h.users.Count(ctx); err != nil {
		serverError(w, r, "count users", err)
		return
	}
	if data.PendingCount, err = h.loans.CountByStatus(ctx, store.LoanPending); err != nil {
		serverError(w, r, "count loans", err)
		return
	}
	if data.ActiveCount, err = h.loans.CountByStatus(ctx, store.LoanActive); err != nil {
		serverError(w, r, "count loans", err)
		return
	}
	render(w, "admin/dashboard.html", data)
}

// Loans serves GET /admin/loans. ?status= filters; the default is the
// pending queue and "all" lists everything. HTMX requests get only the table.
func (h *AdminHandler) Loans(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = store.LoanPending
	case "all":
		status = ""
	}
	if !loanFilters[status] {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	loans, err := h.loans.ListByStatus(r.Context(), status)
	if err != nil {
		serverError(w, r, "list loans", err)
		return
	}
	if status == "" {
		status = "all"
	}
	data := AdminLoansPage{BasePage: h.chrome.Side(r, "Peminjaman"), Loans: loans, Status: status}
	if isHTMX(r) {
		renderPageFragment(w, "admin/loans.html", "loan_table", data)
		return
	}
	render(w, "admin/loans.html", data)
}

// Approve handles POST /admin/loans/{id}/approve.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loans.Approve, func(l *store.Loan, title string) string {
		return fmt.Sprintf("Peminjaman %q disetujui. Kembalikan paling lambat %s.", title, l.DueAt.Time.Format("2 Jan 2006"))
	})
}

// Reject handles POST /admin/loans/{id}/reject.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loans.Reject, func(_ *store.Loan, title string) string {
		return fmt.Sprintf("Permintaan peminjaman %q ditolak.", title)
	})
}

// Return handles POST /admin/loans/{id}/return.
func (h *AdminHandler) Return(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loans.Return, func(_ *store.Loan, title string) string {
		return fmt.Sprintf("Pengembalian %q sudah dicatat. Terima kasih!", title)
	})
}

// transition applies a loan status change, then notifies the borrower and
// pushes their new unread count to open pages.
func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request,
	apply func(context.Context, string) (*store.Loan, error),
	message func(*store.Loan, string) string,
) {
	ctx := r.Context()
	back := "/admin/loans"
	if s := r.PostFormValue("status"); s != "" {
		back += "?status=" + url.QueryEscape(s)
	}

	loan, err := apply(ctx, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		notFound(w, r, h.chrome)
		return
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, store.ErrOutOfStock):
		h.chrome.SetFlash(ctx, "error", "Status peminjaman tidak dapat diubah: "+err.Error())
		redirect(w, r, back)
		return
	case err != nil:
		serverError(w, r, "loan transition", err)
		return
	}
	metrics.LoanTransitionsTotal.WithLabelValues(loan.Status).Inc()

	title := loan.ItemID
	if item, err := h.items.GetByID(ctx, loan.ItemID); err == nil {
		title = item.Title
	}
	if err := h.notify(ctx, loan.UserID, message(loan, title)); err != nil {
		slog.ErrorContext(ctx, "notify borrower", slog.String("loan_id", loan.ID), slog.Any("error", err))
	}

	admin := auth.UserFromContext(ctx)
	slog.InfoContext(ctx, "loan transition",
		slog.String("loan_id", loan.ID),
		slog.String("status", loan.Status),
		slog.String("admin_id", admin.ID))
	h.chrome.SetFlash(ctx, "success", "Status peminjaman diperbarui.")
	redirect(w, r, back)
}

func (h *AdminHandler) notify(ctx context.Context, userID, message string) error {
	if _, err := h.notifications.Create(ctx, userID, message, nav.PathDashboard); err != nil {
		return err
	}
	n, err := h.notifications.CountUnread(ctx, userID)
	if err != nil {
		return err
	}
	if h.hub != nil {
		h.hub.Publish(userID, n)
	}
	return nil
}

// Users serves GET /admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		serverError(w, r, "list users", err)
		return
	}
	render(w, "admin/users.html", AdminUsersPage{BasePage: h.chrome.Side(r, "Pengguna"), Users: users})
}

// UpdateRole handles POST /admin/users/{id}/role. Admins cannot change
// their own role.
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role := r.PostFormValue("role")
	if role != store.RoleAdmin && role != store.RoleUser {
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	if admin := auth.UserFromContext(r.Context()); admin.ID == id {
		http.Error(w, "cannot change your own role", http.StatusConflict)
		return
	}
	target, err := h.users.UpdateRole(r.Context(), id, role)
	if errors.Is(err, store.ErrNotFound) {
		notFound(w, r, h.chrome)
		return
	}
	if err != nil {
		serverError(w, r, "update role", err)
		return
	}
	if isHTMX(r) {
		renderPageFragment(w, "admin/users.html", "user_row", target)
		return
	}
	redirect(w, r, "/admin/users")
}
