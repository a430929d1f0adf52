package nav

import "strconv"

// HeaderTone is the background treatment of the public header.
type HeaderTone string

const (
	HeaderTransparent HeaderTone = "transparent"
	HeaderOpaque      HeaderTone = "opaque"
)

// DefaultHeading is the side navbar heading shown to non-admin sessions.
const DefaultHeading = "Pinjam"

// PlaceholderName stands in for a session without a display name.
const PlaceholderName = "Pengguna"

// LinkView is a navigation entry together with its highlight flag.
type LinkView struct {
	Link
	Active bool `json:"active"`
}

// CTAView is a call-to-action link. Current is set while the visitor is
// already on the link's own target.
type CTAView struct {
	Link
	Current bool `json:"current"`
}

// PublicView is everything the public navbar template needs.
type PublicView struct {
	Path       string     `json:"path"`
	Header     HeaderTone `json:"header"`
	Links      []LinkView `json:"links"`
	CTAs       []CTAView  `json:"ctas"`
	MobileOpen bool       `json:"mobile_open"`
}

// Opaque reports whether the header uses the opaque treatment.
func (v PublicView) Opaque() bool { return v.Header == HeaderOpaque }

// Badge is the unread-notification badge.
type Badge struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
}

// SideView is everything the side navbar template needs.
type SideView struct {
	BrandHref         string `json:"brand_href"`
	Heading           string `json:"heading"`
	Greeting          string `json:"greeting"`
	Subtitle          string `json:"subtitle"`
	Role              string `json:"role"`
	ShowNotifications bool   `json:"show_notifications"`
	NotificationsHref string `json:"notifications_href,omitempty"`
	Badge             Badge  `json:"badge"`
	UserMenuOpen      bool   `json:"user_menu_open"`
	MenuItems         []Link `json:"menu_items"`
}

// BadgeFor returns the badge for an unread count. Counts above nine read
// "9+"; zero and negative counts hide the badge.
func BadgeFor(count int) Badge {
	switch {
	case count <= 0:
		return Badge{}
	case count > 9:
		return Badge{Visible: true, Text: "9+"}
	default:
		return Badge{Visible: true, Text: strconv.Itoa(count)}
	}
}

// DerivePublic computes the public navbar's view state.
func DerivePublic(path string, scrolled, mobileOpen bool) PublicView {
	v := PublicView{
		Path:       path,
		Header:     HeaderTransparent,
		Links:      make([]LinkView, len(PublicLinks)),
		CTAs:       make([]CTAView, len(CallToActions)),
		MobileOpen: mobileOpen,
	}
	if scrolled || IsAuthPage(path) {
		v.Header = HeaderOpaque
	}
	for i, l := range PublicLinks {
		v.Links[i] = LinkView{Link: l, Active: IsActive(l.Path, path)}
	}
	for i, l := range CallToActions {
		v.CTAs[i] = CTAView{Link: l, Current: l.Path == path}
	}
	return v
}

// DeriveSide computes the side navbar's view state. orgName is the heading
// shown to administrators; an empty orgName falls back to DefaultHeading.
func DeriveSide(s *Session, notifCount int, menuOpen bool, orgName string) SideView {
	if s == nil {
		s = &Session{}
	}
	name := s.DisplayName
	if name == "" {
		name = PlaceholderName
	}

	v := SideView{
		BrandHref:    PathDashboard,
		Heading:      DefaultHeading,
		Greeting:     "Halo, " + name,
		Subtitle:     s.Class,
		Role:         s.Role,
		UserMenuOpen: menuOpen,
		MenuItems:    []Link{{Path: PathProfile, Label: "Profil", Icon: "user"}},
	}

	switch s.Role {
	case RoleAdmin:
		v.BrandHref = PathAdminDashboard
		v.Heading = orgName
		if v.Heading == "" {
			v.Heading = DefaultHeading
		}
		v.Subtitle = "Administrator"
	case RoleUser:
		v.ShowNotifications = true
		v.NotificationsHref = PathNotifications
		v.Badge = BadgeFor(notifCount)
	}
	return v
}
