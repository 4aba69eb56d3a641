package session_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/okian/xcroster/internal/adapters/apiclient"
	"github.com/okian/xcroster/internal/adapters/tokenstore"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAuth struct {
	mu          sync.Mutex
	live        map[string]bool
	issued      int
	transport   bool
	logoutFails bool
	logouts     []string
	// logoutEntered and logoutGate hold a logout request open when set.
	logoutEntered chan struct{}
	logoutGate    chan struct{}
}

func newFakeAuth(live ...string) *fakeAuth {
	f := &fakeAuth{live: map[string]bool{}}
	for _, t := range live {
		f.live[t] = true
	}
	return f
}

func (f *fakeAuth) Login(_ context.Context, creds model.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport {
		return "", fmt.Errorf("login: %w: connection refused", apiclient.ErrTransport)
	}
	if creds.Password != "admin123" {
		return "", &apiclient.Error{Op: "login", Status: 401, Message: "Invalid password", ServerMessage: true}
	}
	f.issued++
	tok := fmt.Sprintf("tok-%d", f.issued)
	f.live[tok] = true
	return tok, nil
}

func (f *fakeAuth) Verify(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transport {
		return fmt.Errorf("verify: %w: connection refused", apiclient.ErrTransport)
	}
	if !f.live[token] {
		return &apiclient.Error{Op: "verify", Status: 401, Message: "Invalid or expired token", ServerMessage: true}
	}
	return nil
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	if f.logoutEntered != nil {
		f.logoutEntered <- struct{}{}
		<-f.logoutGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, token)
	if f.logoutFails {
		return fmt.Errorf("logout: %w: connection reset", apiclient.ErrTransport)
	}
	delete(f.live, token)
	return nil
}

func record(store *session.Store) (*[]session.Session, *sync.Mutex) {
	var (
		mu   sync.Mutex
		seen []session.Session
	)
	store.Subscribe(func(s session.Session) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	return &seen, &mu
}

func states(seen []session.Session) []session.State {
	out := make([]session.State, len(seen))
	for i, s := range seen {
		out[i] = s.State
	}
	return out
}

func TestInitialize(t *testing.T) {
	Convey("Given a session store", t, func() {
		ctx := context.Background()

		Convey("When no token is stored", func() {
			store := session.New(newFakeAuth(), tokenstore.NewMemoryStore(""))
			defer store.Dispose()
			seen, _ := record(store)

			So(store.Snapshot().Loading(), ShouldBeTrue)
			So(store.Initialize(ctx), ShouldBeNil)

			Convey("Then it goes straight to unauthenticated", func() {
				So(states(*seen), ShouldResemble, []session.State{session.StateUnauthenticated})
				snap := store.Snapshot()
				So(snap.Loading(), ShouldBeFalse)
				So(snap.Authenticated(), ShouldBeFalse)
			})
		})

		Convey("When a valid token is stored", func() {
			tokens := tokenstore.NewMemoryStore("good")
			store := session.New(newFakeAuth("good"), tokens)
			defer store.Dispose()
			seen, _ := record(store)

			So(store.Initialize(ctx), ShouldBeNil)

			Convey("Then it verifies and authenticates, clearing loading once", func() {
				So(states(*seen), ShouldResemble, []session.State{session.StateVerifying, session.StateAuthenticated})
				loadingCleared := 0
				for i, s := range *seen {
					if !s.Loading() && (i == 0 || (*seen)[i-1].Loading()) {
						loadingCleared++
					}
				}
				So(loadingCleared, ShouldEqual, 1)
				So(store.Token(), ShouldEqual, "good")
				So(store.Snapshot().Authenticated(), ShouldBeTrue)
			})
		})

		Convey("When an expired token is stored", func() {
			tokens := tokenstore.NewMemoryStore("expired")
			store := session.New(newFakeAuth(), tokens)
			defer store.Dispose()

			err := store.Initialize(ctx)

			Convey("Then the persisted token is cleared and the session is unauthenticated", func() {
				So(errors.Is(err, apiclient.ErrUnauthorized), ShouldBeTrue)
				So(store.State(), ShouldEqual, session.StateUnauthenticated)
				So(store.Token(), ShouldBeEmpty)
				_, lerr := tokens.Load(ctx)
				So(errors.Is(lerr, tokenstore.ErrNoToken), ShouldBeTrue)
			})
		})

		Convey("When the backend is unreachable during verification", func() {
			tokens := tokenstore.NewMemoryStore("good")
			auth := newFakeAuth("good")
			auth.transport = true
			store := session.New(auth, tokens)
			defer store.Dispose()

			err := store.Initialize(ctx)

			Convey("Then the token is cleared as for any failed verification", func() {
				So(errors.Is(err, apiclient.ErrTransport), ShouldBeTrue)
				So(store.Snapshot().Loading(), ShouldBeFalse)
				So(store.Snapshot().Authenticated(), ShouldBeFalse)
				_, lerr := tokens.Load(ctx)
				So(errors.Is(lerr, tokenstore.ErrNoToken), ShouldBeTrue)
			})
		})

		Convey("When the caller cancels during verification", func() {
			tokens := tokenstore.NewMemoryStore("good")
			store := session.New(&cancellingAuth{fakeAuth: newFakeAuth("good")}, tokens)
			defer store.Dispose()
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			err := store.Initialize(withCancel(cctx, cancel))

			Convey("Then loading ends but the stored token survives", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(store.State(), ShouldEqual, session.StateUnauthenticated)
				tok, lerr := tokens.Load(ctx)
				So(lerr, ShouldBeNil)
				So(tok, ShouldEqual, "good")
			})
		})
	})
}

type cancelKey struct{}

func withCancel(ctx context.Context, cancel context.CancelFunc) context.Context {
	return context.WithValue(ctx, cancelKey{}, cancel)
}

// cancellingAuth cancels the caller's context mid-verification.
type cancellingAuth struct {
	*fakeAuth
}

func (c *cancellingAuth) Verify(ctx context.Context, _ string) error {
	if cancel, ok := ctx.Value(cancelKey{}).(context.CancelFunc); ok {
		cancel()
	}
	return fmt.Errorf("verify: %w: %w", apiclient.ErrTransport, ctx.Err())
}

func TestLogin(t *testing.T) {
	Convey("Given an initialized, unauthenticated store", t, func() {
		ctx := context.Background()
		auth := newFakeAuth()
		tokens := tokenstore.NewMemoryStore("")
		store := session.New(auth, tokens)
		defer store.Dispose()
		So(store.Initialize(ctx), ShouldBeNil)

		Convey("When logging in with the demo password", func() {
			err := store.Login(ctx, model.Credentials{Password: "admin123"})

			Convey("Then the token is persisted and a following verify authenticates", func() {
				So(err, ShouldBeNil)
				So(store.Snapshot().Authenticated(), ShouldBeTrue)
				stored, lerr := tokens.Load(ctx)
				So(lerr, ShouldBeNil)
				So(stored, ShouldEqual, store.Token())

				So(store.Verify(ctx, store.Token()), ShouldBeNil)
				So(store.Snapshot().Authenticated(), ShouldBeTrue)
			})
		})

		Convey("When logging in with another password", func() {
			err := store.Login(ctx, model.Credentials{Password: "letmein"})

			Convey("Then the server message is surfaced verbatim", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldEqual, "Invalid password")
				So(errors.Is(err, session.ErrLoginFailed), ShouldBeTrue)
				So(store.State(), ShouldEqual, session.StateUnauthenticated)
			})
		})

		Convey("When the backend is unreachable", func() {
			auth.transport = true
			err := store.Login(ctx, model.Credentials{Password: "admin123"})

			Convey("Then the generic message is used", func() {
				So(err.Error(), ShouldEqual, "Login failed")
				So(errors.Is(err, apiclient.ErrTransport), ShouldBeTrue)
			})
		})
	})
}

func TestLogoutAndReverify(t *testing.T) {
	Convey("Given an authenticated store", t, func() {
		ctx := context.Background()
		auth := newFakeAuth()
		tokens := tokenstore.NewMemoryStore("")
		store := session.New(auth, tokens)
		defer store.Dispose()
		So(store.Initialize(ctx), ShouldBeNil)
		So(store.Login(ctx, model.Credentials{Password: "admin123"}), ShouldBeNil)
		token := store.Token()

		Convey("When logging out while the backend fails", func() {
			auth.logoutFails = true
			err := store.Logout(ctx)

			Convey("Then the failure is swallowed and the token cleared", func() {
				So(err, ShouldBeNil)
				So(auth.logouts, ShouldResemble, []string{token})
				So(store.State(), ShouldEqual, session.StateUnauthenticated)
				_, lerr := tokens.Load(ctx)
				So(errors.Is(lerr, tokenstore.ErrNoToken), ShouldBeTrue)
			})
		})

		Convey("When a login completes while the logout request is in flight", func() {
			auth.logoutEntered = make(chan struct{})
			auth.logoutGate = make(chan struct{})
			done := make(chan error, 1)
			go func() { done <- store.Logout(ctx) }()
			<-auth.logoutEntered

			So(store.Login(ctx, model.Credentials{Password: "admin123"}), ShouldBeNil)
			fresh := store.Token()
			close(auth.logoutGate)
			So(<-done, ShouldBeNil)

			Convey("Then the new session and its stored token survive", func() {
				So(fresh, ShouldNotEqual, token)
				So(store.State(), ShouldEqual, session.StateAuthenticated)
				So(store.Token(), ShouldEqual, fresh)
				stored, lerr := tokens.Load(ctx)
				So(lerr, ShouldBeNil)
				So(stored, ShouldEqual, fresh)
			})
		})

		Convey("When a re-verification fails", func() {
			seen, mu := record(store)
			auth.mu.Lock()
			delete(auth.live, token)
			auth.mu.Unlock()

			So(store.Verify(ctx, token), ShouldNotBeNil)

			Convey("Then it moves to unauthenticated without passing through verifying", func() {
				mu.Lock()
				defer mu.Unlock()
				So(states(*seen), ShouldResemble, []session.State{session.StateUnauthenticated})
			})
		})

		Convey("When the store is disposed", func() {
			store.Dispose()

			Convey("Then later calls are refused", func() {
				So(errors.Is(store.Logout(ctx), session.ErrDisposed), ShouldBeTrue)
				So(errors.Is(store.Initialize(ctx), session.ErrDisposed), ShouldBeTrue)
			})
		})
	})
}

func TestAgainstHTTPBackend(t *testing.T) {
	Convey("Given a store wired to the real API client", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/api/auth/login":
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Invalid password"}`))
			case "/api/auth/verify":
				if strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") == "live" {
					_, _ = w.Write([]byte(`{"valid":true}`))
					return
				}
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"valid":false,"error":"Invalid or expired token"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		client := apiclient.New(srv.URL)
		store := session.New(client, tokenstore.NewMemoryStore("live"))
		defer store.Dispose()

		So(store.Initialize(context.Background()), ShouldBeNil)
		So(store.Snapshot().Authenticated(), ShouldBeTrue)

		err := store.Login(context.Background(), model.Credentials{Password: "nope"})
		So(err.Error(), ShouldEqual, "Invalid password")
		So(store.Snapshot().Authenticated(), ShouldBeTrue)
	})
}
