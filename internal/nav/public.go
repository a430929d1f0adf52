package nav

// PublicNavbar is the marketing navbar shown to visitors. It owns the
// scroll flag and the mobile-menu flag; the route path belongs to the
// router and is fixed for the lifetime of one instance.
type PublicNavbar struct {
	path     string
	scrolled bool
	mobile   *Menu
	overlay  *Overlay
	nav      Navigator

	unsubscribe func()
	onChange    func()
}

// NewPublicNavbar returns an unmounted navbar for the page at path.
func NewPublicNavbar(path string, navigator Navigator) *PublicNavbar {
	overlay := NewOverlay()
	return &PublicNavbar{
		path:    path,
		mobile:  NewMenu(overlay),
		overlay: overlay,
		nav:     navigator,
	}
}

// OnChange registers fn to run after any scroll event that changes the
// header treatment.
func (p *PublicNavbar) OnChange(fn func()) { p.onChange = fn }

// Mount subscribes to src. Mounting an already mounted navbar first
// releases the previous subscription.
func (p *PublicNavbar) Mount(src ScrollSource) {
	p.Unmount()
	p.unsubscribe = src.Subscribe(p.Scroll)
}

// Unmount releases the scroll subscription. It is safe to call repeatedly.
func (p *PublicNavbar) Unmount() {
	if p.unsubscribe != nil {
		unsubscribe := p.unsubscribe
		p.unsubscribe = nil
		unsubscribe()
	}
}

// Mounted reports whether the navbar holds a scroll subscription.
func (p *PublicNavbar) Mounted() bool { return p.unsubscribe != nil }

// Scroll records a viewport offset.
func (p *PublicNavbar) Scroll(offset float64) {
	scrolled := IsScrolled(offset)
	if scrolled == p.scrolled {
		return
	}
	p.scrolled = scrolled
	if p.onChange != nil {
		p.onChange()
	}
}

// ToggleMobile flips the mobile menu.
func (p *PublicNavbar) ToggleMobile() { p.mobile.Toggle() }

// TapOverlay handles a tap on the mobile menu's dimming overlay.
func (p *PublicNavbar) TapOverlay() { p.overlay.Tap() }

// Follow handles activation of a link or call-to-action inside the navbar:
// the mobile menu closes and the browser moves to path.
func (p *PublicNavbar) Follow(path string) {
	p.mobile.Activate(func() {
		if p.nav != nil {
			p.nav.Navigate(path)
		}
	})
}

// MobileState returns the mobile menu state.
func (p *PublicNavbar) MobileState() MenuState { return p.mobile.State() }

// View derives the current view state.
func (p *PublicNavbar) View() PublicView {
	return DerivePublic(p.path, p.scrolled, p.mobile.IsOpen())
}
