package nav

// MenuState is the open/closed flag of a dropdown or slide-in menu.
type MenuState int

const (
	MenuClosed MenuState = iota
	MenuOpen
)

func (s MenuState) String() string {
	if s == MenuOpen {
		return "open"
	}
	return "closed"
}

// Menu is the two-state machine shared by the mobile menu and the user menu.
//
//	Closed --toggle--> Open
//	Open --toggle | overlay tap | item activation--> Closed
//
// While open, the menu holds a watch on its OutsideDetector; closing the
// menu releases it.
type Menu struct {
	state   MenuState
	outside OutsideDetector
	release func()
}

// NewMenu returns a closed menu dismissed by outside.
// A nil detector gives a menu that only the toggle and its items can close.
func NewMenu(outside OutsideDetector) *Menu {
	return &Menu{outside: outside}
}

// State returns the current state.
func (m *Menu) State() MenuState { return m.state }

// IsOpen reports whether the menu is open.
func (m *Menu) IsOpen() bool { return m.state == MenuOpen }

// Toggle flips the menu between open and closed.
func (m *Menu) Toggle() {
	if m.state == MenuOpen {
		m.Close()
		return
	}
	m.state = MenuOpen
	if m.outside != nil {
		m.release = m.outside.Watch(m.Close)
	}
}

// Close closes the menu. Closing a closed menu does nothing.
func (m *Menu) Close() {
	if m.state == MenuClosed {
		return
	}
	m.state = MenuClosed
	if m.release != nil {
		release := m.release
		m.release = nil
		release()
	}
}

// Activate runs an item contained in the menu. The menu is closed before
// action runs, so an action that navigates away leaves the menu closed.
func (m *Menu) Activate(action func()) {
	m.Close()
	if action != nil {
		action()
	}
}
