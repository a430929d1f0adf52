package auth

import (
	"context"
	"log/slog"

	"github.com/alexedwards/scs/v2"

	"github.com/pinjam-app/pinjam/internal/metrics"
	"github.com/pinjam-app/pinjam/internal/nav"
	"github.com/pinjam-app/pinjam/internal/store"
)

// NavSession maps a user record to the session view the navbars render.
// A nil user yields nil.
func NavSession(u *store.User) *nav.Session {
	if u == nil {
		return nil
	}
	return &nav.Session{DisplayName: u.DisplayName, Role: u.Role, Class: u.ClassTag}
}

// Sessions implements nav.SessionProvider on top of an scs session. The
// context passed to Logout must carry the scs session data, i.e. it must
// come from a request that went through LoadAndSave.
type Sessions struct {
	sm   *scs.SessionManager
	user *store.User
}

// NewSessions returns a provider for the signed-in user (nil when signed out).
func NewSessions(sm *scs.SessionManager, user *store.User) *Sessions {
	return &Sessions{sm: sm, user: user}
}

// Current implements nav.SessionProvider.
func (s *Sessions) Current() *nav.Session { return NavSession(s.user) }

// Logout implements nav.SessionProvider. The scs record is deleted from the
// store before Logout returns; a failure is logged and the local view of the
// session is cleared regardless.
func (s *Sessions) Logout(ctx context.Context) {
	if s.user != nil {
		slog.InfoContext(ctx, "logout", slog.String("user_id", s.user.ID))
	}
	if err := s.sm.Destroy(ctx); err != nil {
		slog.ErrorContext(ctx, "destroy session", slog.Any("error", err))
	}
	s.user = nil
	metrics.LogoutsTotal.Inc()
}

// StartSession renews the session token and stores user's identity in it.
func StartSession(ctx context.Context, sm *scs.SessionManager, user *store.User) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionUserIDKey, user.ID)
	sm.Put(ctx, SessionRoleKey, user.Role)
	return nil
}
