// Package app composes the roster client: API client, query cache, session
// and fragment routing, plus the hooks and mutations pages use.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/okian/xcroster/internal/adapters/apiclient"
	"github.com/okian/xcroster/internal/adapters/tokenstore"
	"github.com/okian/xcroster/internal/cache"
	"github.com/okian/xcroster/internal/config"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/route"
	"github.com/okian/xcroster/internal/session"
	"github.com/okian/xcroster/pkg/logger"
)

// ErrClosed is returned by calls on a closed App.
var ErrClosed = errors.New("app closed")

// App is one client instance. Create it with New, call Start once and
// release it with Close.
type App struct {
	mu      sync.Mutex
	started bool
	closed  bool
	query   string
	lastErr error

	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	tokens      tokenstore.Store
	fragment    string
	searchLimit int
	noticeTTL   time.Duration
	now         func() time.Time
	logger      logger.Logger

	api     *apiclient.Client
	cache   *cache.Cache
	session *session.Store
	nav     *route.Navigator
	router  *route.Controller
	notices *Notices
}

// Option applies a configuration option to the App.
type Option func(*App)

// WithTokenStore sets where the session token is persisted.
func WithTokenStore(s tokenstore.Store) Option {
	return func(a *App) {
		if s != nil {
			a.tokens = s
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		if hc != nil {
			a.httpClient = hc
		}
	}
}

// WithRequestTimeout caps each API request.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithFragment sets the initial navigation fragment.
func WithFragment(fragment string) Option {
	return func(a *App) {
		a.fragment = fragment
	}
}

// WithSearchLimit caps rows on the athlete management page.
func WithSearchLimit(n int) Option {
	return func(a *App) {
		if n >= 0 {
			a.searchLimit = n
		}
	}
}

// WithNoticeTTL sets how long notices stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.noticeTTL = d
		}
	}
}

// WithClock sets the time source for notices and date-based page logic.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// New builds an App talking to baseURL.
func New(baseURL string, opts ...Option) *App {
	a := &App{
		baseURL:   baseURL,
		fragment:  route.Home.Fragment(),
		noticeTTL: DefaultNoticeTTL,
		now:       time.Now,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tokens == nil {
		a.tokens = tokenstore.NewMemoryStore("")
	}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(a.logger.Named("api")),
		apiclient.WithTokenSource(apiclient.TokenFunc(func() string { return a.session.Token() })),
		apiclient.WithTimeout(a.timeout),
	}
	if a.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(a.httpClient))
	}
	a.api = apiclient.New(a.baseURL, clientOpts...)
	a.cache = cache.New(cache.WithLogger(a.logger.Named("cache")))
	a.session = session.New(a.api, a.tokens, session.WithLogger(a.logger.Named("session")))
	a.nav = route.NewNavigator(a.fragment)
	a.router = route.NewController(a.nav, a.session, route.WithLogger(a.logger.Named("route")))
	a.notices = newNotices(a.noticeTTL, a.now)
	return a
}

// NewFromConfig builds an App from the client half of cfg. Extra options
// are applied after the config-derived ones.
func NewFromConfig(cfg *config.Config, opts ...Option) (*App, error) {
	tokens, err := tokenstore.NewFileStore(cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithTokenStore(tokens),
		WithRequestTimeout(cfg.RequestTimeout()),
		WithSearchLimit(cfg.MaxSearchResults),
	}
	return New(cfg.BaseURL, append(base, opts...)...), nil
}

// Start verifies any stored session and begins routing. A rejected or
// unreachable session is not an error; the app continues unauthenticated.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	a.logger.Info(ctx, "starting roster client", logger.String("baseURL", a.api.BaseURL()))
	if err := a.session.Initialize(ctx); err != nil {
		if errors.Is(err, session.ErrDisposed) {
			return err
		}
		a.logger.Warn(ctx, "stored session not accepted", logger.Error(err))
	}
	a.router.Start()
	a.logger.Info(ctx, "roster client started",
		logger.String("state", a.session.State().String()),
		logger.String("fragment", a.nav.Fragment()),
	)
	return nil
}

// Close stops routing, disposes the session and waits for in-flight fetches.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.router.Close()
	a.session.Dispose()
	return a.cache.Close()
}

// Session returns the current session snapshot.
func (a *App) Session() session.Session { return a.session.Snapshot() }

// SubscribeSession calls fn on every session transition.
func (a *App) SubscribeSession(fn func(session.Session)) func() {
	return a.session.Subscribe(fn)
}

// Navigate pushes a fragment such as "#results?meet=3".
func (a *App) Navigate(fragment string) { a.nav.Navigate(fragment) }

// Back returns to the previous fragment.
func (a *App) Back() bool { return a.nav.Back() }

// Fragment returns the current fragment.
func (a *App) Fragment() string { return a.nav.Fragment() }

// Decision returns the routing decision for the current fragment.
func (a *App) Decision() route.Decision { return a.router.Current() }

// SubscribeRoute calls fn whenever the routed page changes.
func (a *App) SubscribeRoute(fn func(route.Decision)) func() {
	return a.router.Subscribe(fn)
}

// Notices returns the notice list.
func (a *App) Notices() *Notices { return a.notices }

// Search sets the athlete name filter used by the athlete pages.
func (a *App) Search(query string) {
	a.mu.Lock()
	a.query = query
	a.mu.Unlock()
}

// Login authenticates with the admin password. On failure the message is
// kept for the login page.
func (a *App) Login(ctx context.Context, password string) error {
	err := a.session.Login(ctx, model.Credentials{Password: password})
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
	if err != nil {
		a.logger.Debug(ctx, "login failed", logger.Error(err))
	}
	return err
}

// Logout ends the session. It never fails on backend errors.
func (a *App) Logout(ctx context.Context) error {
	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()
	return a.session.Logout(ctx)
}

func (a *App) snapshot() (query string, lastErr error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.query, a.lastErr
}
