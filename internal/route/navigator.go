package route

import (
	"sync"

	"github.com/okian/xcroster/internal/notify"
)

// Navigator holds the current fragment. It stands in for the browser
// location: changing it never reloads anything, it only notifies.
type Navigator struct {
	mu      sync.Mutex
	history []string
	version uint64
	hub     notify.Hub[string]
}

// NewNavigator starts at fragment; empty means Home.
func NewNavigator(fragment string) *Navigator {
	if fragment == "" {
		fragment = Home.Fragment()
	}
	return &Navigator{history: []string{fragment}}
}

// Fragment returns the current fragment.
func (n *Navigator) Fragment() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// Navigate pushes fragment.
func (n *Navigator) Navigate(fragment string) {
	n.mu.Lock()
	n.history = append(n.history, fragment)
	n.version++
	v := n.version
	n.mu.Unlock()
	n.hub.Publish(v, fragment)
}

// Replace swaps the current fragment without adding history.
func (n *Navigator) Replace(fragment string) {
	n.mu.Lock()
	n.history[len(n.history)-1] = fragment
	n.version++
	v := n.version
	n.mu.Unlock()
	n.hub.Publish(v, fragment)
}

// Back pops one entry. It reports false at the start of history.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	if len(n.history) < 2 {
		n.mu.Unlock()
		return false
	}
	n.history = n.history[:len(n.history)-1]
	fragment := n.history[len(n.history)-1]
	n.version++
	v := n.version
	n.mu.Unlock()
	n.hub.Publish(v, fragment)
	return true
}

// Subscribe calls fn with each new fragment.
func (n *Navigator) Subscribe(fn func(string)) func() {
	return n.hub.Subscribe(fn)
}
