package nav

// OutsideDetector reports activations that land outside a popover.
// Watch registers onOutside and returns a function that unregisters it.
type OutsideDetector interface {
	Watch(onOutside func()) (release func())
}

// Overlay is the dimming layer rendered behind an open menu. Tapping it
// fires the watch that is currently registered. An Overlay serves one menu.
type Overlay struct {
	onTap func()
	gen   int
}

// NewOverlay returns an overlay with no watch registered.
func NewOverlay() *Overlay { return &Overlay{} }

// Watch implements OutsideDetector. A later Watch replaces an earlier one;
// releasing a replaced watch leaves the newer one in place.
func (o *Overlay) Watch(onOutside func()) func() {
	o.gen++
	gen := o.gen
	o.onTap = onOutside
	return func() {
		if o.gen == gen {
			o.onTap = nil
		}
	}
}

// Visible reports whether the overlay should be rendered.
func (o *Overlay) Visible() bool { return o.onTap != nil }

// Tap activates the overlay. Tapping a hidden overlay does nothing.
func (o *Overlay) Tap() {
	if o.onTap != nil {
		o.onTap()
	}
}
