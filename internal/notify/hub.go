// Package notify fans versioned values out to subscribers.
//
// Each subscriber has a one-slot mailbox: a value published while the
// subscriber is still handling an earlier one replaces whatever is queued,
// so slow subscribers see the latest value rather than every value. Values
// reach a subscriber in version order and never concurrently, and a
// subscriber may publish or unsubscribe from inside its own callback.
package notify

import (
	"sync"
)

// Hub is safe for concurrent use. The zero value is ready.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[uint64]*subscriber[T]
	next uint64
}

type subscriber[T any] struct {
	mu      sync.Mutex
	fn      func(T)
	closed  bool
	running bool
	pending *T
	queued  uint64
}

// Subscribe registers fn. The returned func removes it; once that returns
// no new call to fn starts.
func (h *Hub[T]) Subscribe(fn func(T)) func() {
	s := &subscriber[T]{fn: fn}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[uint64]*subscriber[T])
	}
	h.next++
	id := h.next
	h.subs[id] = s
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.closed = true
			s.pending = nil
			s.mu.Unlock()

			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers v to every subscriber that has not yet been handed a
// value with a version at or above version.
func (h *Hub[T]) Publish(version uint64, v T) {
	h.mu.Lock()
	subs := make([]*subscriber[T], 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.offer(version, v)
	}
}

// Close drops every subscriber.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		s.mu.Unlock()
	}
}

func (s *subscriber[T]) offer(version uint64, v T) {
	s.mu.Lock()
	if s.closed || version <= s.queued {
		s.mu.Unlock()
		return
	}
	s.queued = version
	s.pending = &v
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	for s.pending != nil && !s.closed {
		next := *s.pending
		s.pending = nil
		s.mu.Unlock()
		s.fn(next)
		s.mu.Lock()
	}
	s.running = false
	s.mu.Unlock()
}
