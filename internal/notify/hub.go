// Package notify fans out unread-notification counts to the live pages of
// the user they belong to.
package notify

import "sync"

// Hub delivers the latest unread count per user. A subscriber that falls
// behind only ever sees the newest count; Publish never blocks.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in userID's count. cancel removes the
// subscription and closes the channel; it may be called more than once.
func (h *Hub) Subscribe(userID string) (<-chan int, func()) {
	s := &subscriber{ch: make(chan int, 1)}

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], s)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(s.ch)
			h.mu.Unlock()
		})
	}
	return s.ch, cancel
}

// Publish sends count to every subscriber of userID, replacing any count
// the subscriber has not read yet.
func (h *Hub) Publish(userID string, count int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[userID] {
		select {
		case <-s.ch:
		default:
		}
		s.ch <- count
	}
}

// Subscribers returns the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
