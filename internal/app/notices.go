package app

import (
	"sync"
	"time"
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 3 * time.Second

// Level is the severity of a notice.
type Level int

// Notice levels.
const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notice is a transient message about a mutation outcome.
type Notice struct {
	ID      uint64
	Level   Level
	Message string
	Expires time.Time
}

// Notices keeps recent notices. Expired ones are dropped lazily on read.
type Notices struct {
	mu    sync.Mutex
	items []Notice
	next  uint64
	ttl   time.Duration
	now   func() time.Time
}

func newNotices(ttl time.Duration, now func() time.Time) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Notices{ttl: ttl, now: now}
}

// Push records a notice and returns it.
func (n *Notices) Push(level Level, msg string) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	notice := Notice{ID: n.next, Level: level, Message: msg, Expires: n.now().Add(n.ttl)}
	n.items = append(n.items, notice)
	return notice
}

// Active returns unexpired notices, oldest first.
func (n *Notices) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	kept := n.items[:0]
	for _, it := range n.items {
		if now.Before(it.Expires) {
			kept = append(kept, it)
		}
	}
	n.items = kept
	return append([]Notice(nil), kept...)
}

// Dismiss drops a notice before it expires.
func (n *Notices) Dismiss(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, it := range n.items {
		if it.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}
