package nav

import "context"

// SideProps are the inputs a parent layout hands to SideNavbar.
type SideProps struct {
	Session       *Session
	ToggleSidebar func()
	NotifCount    int
	OrgName       string
}

// SideNavbar is the navbar of an authenticated session.
type SideNavbar struct {
	props    SideProps
	userMenu *Menu
	overlay  *Overlay
	sessions SessionProvider
	nav      Navigator
}

// NewSideNavbar returns a side navbar with its user menu closed.
func NewSideNavbar(props SideProps, sessions SessionProvider, navigator Navigator) *SideNavbar {
	overlay := NewOverlay()
	return &SideNavbar{
		props:    props,
		userMenu: NewMenu(overlay),
		overlay:  overlay,
		sessions: sessions,
		nav:      navigator,
	}
}

// PressMenuButton handles the compact-layout menu button by handing the
// sidebar toggle to the parent layout.
func (s *SideNavbar) PressMenuButton() {
	if s.props.ToggleSidebar != nil {
		s.props.ToggleSidebar()
	}
}

// ToggleUserMenu flips the user menu.
func (s *SideNavbar) ToggleUserMenu() { s.userMenu.Toggle() }

// TapOverlay handles a click outside the open user menu.
func (s *SideNavbar) TapOverlay() { s.overlay.Tap() }

// UserMenuState returns the user menu state.
func (s *SideNavbar) UserMenuState() MenuState { return s.userMenu.State() }

// OpenProfile closes the user menu and navigates to the profile page.
func (s *SideNavbar) OpenProfile() {
	s.userMenu.Activate(func() { s.navigate(PathProfile) })
}

// Logout ends the session and sends the browser to the login page. The
// session is invalidated before navigation starts, so the login page never
// sees it. Logging out twice redirects twice.
func (s *SideNavbar) Logout(ctx context.Context) {
	s.userMenu.Activate(func() {
		if s.sessions != nil {
			s.sessions.Logout(ctx)
		}
		s.navigate(PathLogin)
	})
}

// SetNotifCount replaces the unread-notification count.
func (s *SideNavbar) SetNotifCount(n int) { s.props.NotifCount = n }

// View derives the current view state.
func (s *SideNavbar) View() SideView {
	return DeriveSide(s.props.Session, s.props.NotifCount, s.userMenu.IsOpen(), s.props.OrgName)
}

func (s *SideNavbar) navigate(path string) {
	if s.nav != nil {
		s.nav.Navigate(path)
	}
}
