// Package nav derives the view state of Pinjam's two navigation bars: the
// public navbar shown to visitors and the side navbar shown inside an
// authenticated session.
//
// Everything that decides how a navbar looks is a pure function of its inputs
// (route path, scroll flag, menu flags, session, unread count). The
// components in this package own the few mutable flags and the resources
// that feed them, and are driven by a single goroutine per instance.
package nav

// Route paths the navbars link to.
const (
	PathHome           = "/"
	PathKatalog        = "/katalog"
	PathAbout          = "/tentang"
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathDashboard      = "/dashboard"
	PathAdminDashboard = "/admin/dashboard"
	PathNotifications  = "/notifications"
	PathProfile        = "/profile"
)

// Link is a navigation entry.
type Link struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// PublicLinks is the ordered link set of the public navbar.
var PublicLinks = []Link{
	{Path: PathHome, Label: "Beranda", Icon: "home"},
	{Path: PathKatalog, Label: "Katalog", Icon: "book-open"},
	{Path: PathAbout, Label: "Tentang", Icon: "info"},
}

// CallToActions are the login and register links of the public navbar.
var CallToActions = []Link{
	{Path: PathLogin, Label: "Masuk", Icon: "log-in"},
	{Path: PathRegister, Label: "Daftar", Icon: "user-plus"},
}

var authPages = map[string]bool{
	PathLogin:    true,
	PathRegister: true,
}

// IsActive reports whether a link targeting linkPath is the current page.
// Only exact matches count: "/katalog/1" does not activate "/katalog".
func IsActive(linkPath, current string) bool {
	return linkPath == current
}

// IsAuthPage reports whether path is the login or register page.
func IsAuthPage(path string) bool {
	return authPages[path]
}
