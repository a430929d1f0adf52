package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/pinjam-app/pinjam/internal/auth"
	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/store"
)

const flashKey = "flash"

// BasePage carries layout-level data available to every template. Exactly
// one of Public and Side is set: it selects the navbar the layout renders.
type BasePage struct {
	Title  string
	Theme  string
	User   *store.User
	Public *nav.PublicView
	Side   *nav.SideView
	Flash  *Flash
}

// Chrome builds the layout of each page: which navbar it carries and the
// navbar's initial view state.
type Chrome struct {
	sessions      *scs.SessionManager
	notifications *store.NotificationStore
	orgName       string
}

func NewChrome(sm *scs.SessionManager, ns *store.NotificationStore, orgName string) *Chrome {
	return &Chrome{sessions: sm, notifications: ns, orgName: orgName}
}

// Public returns the layout for a marketing page. The navbar starts
// unscrolled with its mobile menu closed; the live channel takes over from
// there.
func (c *Chrome) Public(r *http.Request, title string) BasePage {
	v := nav.DerivePublic(r.URL.Path, false, false)
	return BasePage{
		Title:  title,
		Theme:  themeFromRequest(r),
		User:   auth.UserFromContext(r.Context()),
		Public: &v,
		Flash:  c.popFlash(r.Context()),
	}
}

// Side returns the layout for a page of an authenticated session.
func (c *Chrome) Side(r *http.Request, title string) BasePage {
	user := auth.UserFromContext(r.Context())
	v := nav.DeriveSide(auth.NavSession(user), c.unread(r.Context(), user), false, c.orgName)
	return BasePage{
		Title: title,
		Theme: themeFromRequest(r),
		User:  user,
		Side:  &v,
		Flash: c.popFlash(r.Context()),
	}
}

func (c *Chrome) unread(ctx context.Context, user *store.User) int {
	if user == nil || c.notifications == nil {
		return 0
	}
	n, err := c.notifications.CountUnread(ctx, user.ID)
	if err != nil {
		slog.WarnContext(ctx, "count unread notifications", slog.Any("error", err))
		return 0
	}
	return n
}

// SetFlash stores a message for the next page the visitor sees.
func (c *Chrome) SetFlash(ctx context.Context, kind, message string) {
	c.sessions.Put(ctx, flashKey, kind+"|"+message)
}

func (c *Chrome) popFlash(ctx context.Context) *Flash {
	if c.sessions == nil {
		return nil
	}
	raw := c.sessions.PopString(ctx, flashKey)
	if raw == "" {
		return nil
	}
	kind, message, ok := strings.Cut(raw, "|")
	if !ok {
		return &Flash{Type: "info", Message: raw}
	}
	return &Flash{Type: kind, Message: message}
}
