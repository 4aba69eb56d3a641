// Package session holds the admin bearer token and whether the backend has
// accepted it.
//
// States:
//
//	uninitialized -> verifying        Initialize with a stored token
//	uninitialized -> unauthenticated  Initialize without one
//	verifying     -> authenticated | unauthenticated
//	authenticated -> unauthenticated  Logout or failed re-verification
//	*             -> authenticated    Login
//
// Only Initialize enters verifying.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/xcroster/internal/adapters/apiclient"
	"github.com/okian/xcroster/internal/adapters/tokenstore"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/notify"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// State is the session lifecycle state.
type State int

// Session states.
const (
	StateUninitialized State = iota
	StateVerifying
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a point-in-time view of the store.
type Session struct {
	State State
	Token string
	// Version increases with every transition.
	Version uint64
}

// Authenticated is true only if the last verification or login of Token succeeded.
func (s Session) Authenticated() bool { return s.State == StateAuthenticated }

// Loading is true until the first verification completes.
func (s Session) Loading() bool {
	return s.State == StateUninitialized || s.State == StateVerifying
}

// Authenticator is the slice of the API client the store needs.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)
	Verify(ctx context.Context, token string) error
	Logout(ctx context.Context, token string) error
}

// Store is an explicitly constructed session. Create it with New and release
// it with Dispose.
type Store struct {
	mu       sync.Mutex
	persist  sync.Mutex // orders token store writes like epoch changes; taken before mu
	auth     Authenticator
	tokens   tokenstore.Store
	log      logger.Logger
	state    State
	token    string
	version  uint64
	epoch    uint64 // bumped by every call that replaces the token
	disposed bool
	hub      notify.Hub[Session]
}

// New creates a Store in the uninitialized state.
func New(auth Authenticator, tokens tokenstore.Store, opts ...Option) *Store {
	s := &Store{
		auth:   auth,
		tokens: tokens,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current state.
func (s *Store) State() State { return s.Snapshot().State }

// Token returns the current bearer token, or "". It satisfies apiclient.TokenSource.
func (s *Store) Token() string { return s.Snapshot().Token }

// Subscribe calls fn after every transition.
func (s *Store) Subscribe(fn func(Session)) func() {
	return s.hub.Subscribe(fn)
}

func (s *Store) snapshotLocked() Session {
	return Session{State: s.state, Token: s.token, Version: s.version}
}

// transitionLocked moves to next and returns the session to publish.
func (s *Store) transitionLocked(next State, token string) Session {
	if s.state != next {
		metrics.RecordSessionTransition(s.state.String(), next.String())
	}
	s.state = next
	s.token = token
	s.version++
	return s.snapshotLocked()
}

func (s *Store) publish(sess Session) {
	s.hub.Publish(sess.Version, sess)
}

// Initialize reads the persisted token. Without one the session becomes
// unauthenticated; with one it enters verifying and verifies it.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.mu.Unlock()

	token, err := s.tokens.Load(ctx)
	if err != nil && !errors.Is(err, tokenstore.ErrNoToken) {
		s.log.Warn(ctx, "reading stored session failed", logger.Error(err))
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.epoch++
	if token == "" {
		sess := s.transitionLocked(StateUnauthenticated, "")
		s.mu.Unlock()
		s.publish(sess)
		return nil
	}
	sess := s.transitionLocked(StateVerifying, token)
	s.mu.Unlock()
	s.publish(sess)

	return s.Verify(ctx, token)
}

// Verify asks the backend whether token is live. Success authenticates the
// session; any failure clears the persisted token and leaves it
// unauthenticated. Either way loading ends. If ctx is cancelled the session
// ends unauthenticated but the persisted token is kept for the next run.
func (s *Store) Verify(ctx context.Context, token string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	epoch := s.epoch
	s.mu.Unlock()

	err := s.auth.Verify(ctx, token)

	s.persist.Lock()
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.persist.Unlock()
		return ErrDisposed
	}
	if s.epoch != epoch {
		// Login or logout replaced the token while this check was running.
		s.mu.Unlock()
		s.persist.Unlock()
		return err
	}
	s.epoch++
	if err == nil {
		sess := s.transitionLocked(StateAuthenticated, token)
		s.mu.Unlock()
		s.persist.Unlock()
		s.publish(sess)
		return nil
	}
	sess := s.transitionLocked(StateUnauthenticated, "")
	s.mu.Unlock()

	if ctx.Err() == nil {
		if cerr := s.tokens.Clear(context.WithoutCancel(ctx)); cerr != nil {
			s.log.Warn(ctx, "clearing stored session failed", logger.Error(cerr))
		}
	}
	s.persist.Unlock()
	s.log.Info(ctx, "session verification failed", logger.Error(err))
	s.publish(sess)
	return err
}

// Login exchanges creds for a token, persists it and authenticates. On
// failure the session is unchanged and the error is a *LoginError carrying
// the server message verbatim.
func (s *Store) Login(ctx context.Context, creds model.Credentials) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.mu.Unlock()

	token, err := s.auth.Login(ctx, creds)
	if err != nil {
		msg := ErrLoginFailed.Error()
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.ServerMessage {
			msg = apiErr.Message
		}
		return &LoginError{Message: msg, Err: err}
	}

	s.persist.Lock()
	if perr := s.tokens.Save(ctx, token); perr != nil {
		s.log.Warn(ctx, "persisting session failed", logger.Error(perr))
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.persist.Unlock()
		return ErrDisposed
	}
	s.epoch++
	sess := s.transitionLocked(StateAuthenticated, token)
	s.mu.Unlock()
	s.persist.Unlock()
	s.publish(sess)
	return nil
}

// Logout tells the backend best-effort, then clears the token regardless. A
// login that completes while the backend call runs wins, and its token is
// kept.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	token := s.token
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	if token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.log.Warn(ctx, "logout request failed", logger.Error(err))
		}
	}

	s.persist.Lock()
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.persist.Unlock()
		return ErrDisposed
	}
	if s.epoch != epoch {
		s.mu.Unlock()
		s.persist.Unlock()
		s.log.Debug(ctx, "session replaced during logout")
		return nil
	}
	sess := s.transitionLocked(StateUnauthenticated, "")
	s.mu.Unlock()
	if err := s.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn(ctx, "clearing stored session failed", logger.Error(err))
	}
	s.persist.Unlock()
	s.publish(sess)
	return nil
}

// Dispose drops subscribers. Later calls return ErrDisposed.
func (s *Store) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
	s.hub.Close()
}
