package nav

import "sync"

// ScrollThreshold is the vertical offset, in pixels, past which the page
// counts as scrolled.
const ScrollThreshold = 10

// IsScrolled reports whether a vertical offset is past ScrollThreshold.
func IsScrolled(offset float64) bool {
	return offset > ScrollThreshold
}

// ScrollSource delivers viewport scroll offsets. Subscribe returns the
// function that ends the subscription.
type ScrollSource interface {
	Subscribe(fn func(offset float64)) (unsubscribe func())
}

// ScrollFeed is a ScrollSource fed by Publish.
type ScrollFeed struct {
	mu   sync.Mutex
	next int
	subs map[int]func(float64)
}

// NewScrollFeed returns a feed with no subscribers.
func NewScrollFeed() *ScrollFeed {
	return &ScrollFeed{subs: make(map[int]func(float64))}
}

// Subscribe implements ScrollSource. The returned function is idempotent.
func (f *ScrollFeed) Subscribe(fn func(offset float64)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers offset to every current subscriber, in the caller's
// goroutine.
func (f *ScrollFeed) Publish(offset float64) {
	f.mu.Lock()
	fns := make([]func(float64), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(offset)
	}
}

// Subscribers returns the number of live subscriptions.
func (f *ScrollFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
