package nav

import "context"

// Role tags carried by a Session.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Session is the read-only view of the signed-in user that the side navbar
// renders from. Any field may be empty.
type Session struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Class       string `json:"class"`
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// SessionProvider supplies the current session and invalidates it.
// Logout has no failure mode visible to callers; once it returns the session
// is gone. Calling it without a session is allowed.
type SessionProvider interface {
	Current() *Session
	Logout(ctx context.Context)
}

// Navigator moves the browser to another route.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }
