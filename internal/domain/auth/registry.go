package auth

import (
	"sync"
	"sync/atomic"
	"time"
)

// Registry tracks issued token IDs until they expire or are revoked.
// A token is valid only while its ID is registered.
type Registry struct {
	mu      sync.RWMutex
	active  map[string]time.Time // jti -> expiry
	maxSize int                  // 0 or negative is unbounded
	size    atomic.Int64
}

// NewRegistry creates a registry holding at most maxSize tokens.
func NewRegistry(maxSize int) *Registry {
	return &Registry{active: make(map[string]time.Time), maxSize: maxSize}
}

// Record registers id until exp. When the registry is full the token
// closest to expiry is dropped first.
func (r *Registry) Record(id string, exp time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[id]; !exists && r.maxSize > 0 && len(r.active) >= r.maxSize {
		r.evictLocked()
	}
	if _, exists := r.active[id]; !exists {
		r.size.Add(1)
	}
	r.active[id] = exp
}

// Active reports whether id is registered and unexpired at now.
func (r *Registry) Active(id string, now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.active[id]
	return ok && now.Before(exp)
}

// Revoke removes id. It reports whether id was registered.
func (r *Registry) Revoke(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; !ok {
		return false
	}
	delete(r.active, id)
	r.size.Add(-1)
	return true
}

// Purge drops every token expired at now and returns how many went.
func (r *Registry) Purge(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, exp := range r.active {
		if !now.Before(exp) {
			delete(r.active, id)
			n++
		}
	}
	r.size.Add(int64(-n))
	return n
}

// Size returns the number of registered tokens.
func (r *Registry) Size() int64 {
	return r.size.Load()
}

// evictLocked removes the entry with the earliest expiry. Caller holds r.mu.
func (r *Registry) evictLocked() {
	var (
		victim string
		first  time.Time
	)
	for id, exp := range r.active {
		if victim == "" || exp.Before(first) {
			victim, first = id, exp
		}
	}
	if victim != "" {
		delete(r.active, victim)
		r.size.Add(-1)
	}
}
