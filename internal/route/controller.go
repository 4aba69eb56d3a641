package route

import (
	"context"
	"sync"

	"github.com/okian/xcroster/internal/notify"
	"github.com/okian/xcroster/internal/session"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// SessionSource is what the controller observes.
type SessionSource interface {
	Snapshot() session.Session
	Subscribe(fn func(session.Session)) func()
}

// Controller re-resolves the current fragment whenever the session or the
// fragment changes, applies redirects through Navigator.Replace and
// publishes render and loading decisions.
type Controller struct {
	nav  *Navigator
	sess SessionSource
	log  logger.Logger

	mu      sync.Mutex
	current Decision
	version uint64
	started bool
	unsubs  []func()
	hub     notify.Hub[Decision]
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewController wires a controller; call Start to begin observing.
func NewController(nav *Navigator, sess SessionSource, opts ...ControllerOption) *Controller {
	c := &Controller{nav: nav, sess: sess, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to the session and navigator and evaluates once.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	unsubSess := c.sess.Subscribe(func(session.Session) { c.evaluate() })
	unsubNav := c.nav.Subscribe(func(string) { c.evaluate() })

	c.mu.Lock()
	c.unsubs = append(c.unsubs, unsubSess, unsubNav)
	c.mu.Unlock()

	c.evaluate()
}

// Current returns the last published decision.
func (c *Controller) Current() Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe calls fn with every render or loading decision.
func (c *Controller) Subscribe(fn func(Decision)) func() {
	return c.hub.Subscribe(fn)
}

// Close stops observing and drops subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
	c.hub.Close()
}

func (c *Controller) evaluate() {
	c.mu.Lock()
	loc := ParseFragment(c.nav.Fragment())
	d := Resolve(loc, c.sess.Snapshot())
	if d.Kind == Redirect {
		c.mu.Unlock()
		metrics.RecordRouteRedirect(loc.Page.String(), d.Page.String())
		c.log.Debug(context.Background(), "route redirect",
			logger.String("from", loc.Raw),
			logger.String("to", d.Target))
		c.nav.Replace(d.Target)
		return
	}
	c.current = d
	c.version++
	v := c.version
	c.mu.Unlock()
	c.hub.Publish(v, d)
}
