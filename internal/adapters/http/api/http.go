// Package api serves the roster REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/xcroster/internal/adapters/http/swagger"
	"github.com/okian/xcroster/internal/adapters/repository"
	"github.com/okian/xcroster/internal/domain/types"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// Version is reported by GET /api.
const Version = "1.0.0"

// Authenticator issues and checks admin tokens.
type Authenticator interface {
	Login(ctx context.Context, password string) (string, time.Time, error)
	Verify(ctx context.Context, token string) error
	Logout(ctx context.Context, token string)
}

// Server wires HTTP routes for the roster API.
type Server struct {
	store  repository.Store
	auth   Authenticator
	name   string
	logger logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithName sets the API name reported by /api and /health.
func WithName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
	}
}

// NewServer creates a new API server.
func NewServer(store repository.Store, auth Authenticator, opts ...Option) *Server {
	s := &Server{
		store:  store,
		auth:   auth,
		name:   "Jones County XC API",
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the complete route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogging)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/health", MetricsMiddleware(s.handleHealth, "health")).Methods(http.MethodGet)
	r.HandleFunc("/api", MetricsMiddleware(s.handleInfo, "info")).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	swagger.Register(r)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", MetricsMiddleware(s.handleLogin, "auth_login")).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", MetricsMiddleware(s.handleVerify, "auth_verify")).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", MetricsMiddleware(s.handleLogout, "auth_logout")).Methods(http.MethodPost)

	api.HandleFunc("/athletes", MetricsMiddleware(s.handleListAthletes, "athletes")).Methods(http.MethodGet)
	api.HandleFunc("/athletes", MetricsMiddleware(s.requireAuth(s.handleCreateAthlete), "athletes")).Methods(http.MethodPost)
	api.HandleFunc("/athletes/{id}", MetricsMiddleware(s.handleGetAthlete, "athlete")).Methods(http.MethodGet)
	api.HandleFunc("/athletes/{id}", MetricsMiddleware(s.requireAuth(s.handleUpdateAthlete), "athlete")).Methods(http.MethodPut)
	api.HandleFunc("/athletes/{id}", MetricsMiddleware(s.requireAuth(s.handleDeleteAthlete), "athlete")).Methods(http.MethodDelete)

	api.HandleFunc("/meets", MetricsMiddleware(s.handleListMeets, "meets")).Methods(http.MethodGet)
	api.HandleFunc("/meets", MetricsMiddleware(s.requireAuth(s.handleCreateMeet), "meets")).Methods(http.MethodPost)
	api.HandleFunc("/meets/{id}", MetricsMiddleware(s.handleGetMeet, "meet")).Methods(http.MethodGet)
	api.HandleFunc("/meets/{id}", MetricsMiddleware(s.requireAuth(s.handleUpdateMeet), "meet")).Methods(http.MethodPut)
	api.HandleFunc("/meets/{id}", MetricsMiddleware(s.requireAuth(s.handleDeleteMeet), "meet")).Methods(http.MethodDelete)
	api.HandleFunc("/meets/{id}/results", MetricsMiddleware(s.handleMeetResults, "meet_results")).Methods(http.MethodGet)

	api.HandleFunc("/results", MetricsMiddleware(s.requireAuth(s.handleCreateResult), "results")).Methods(http.MethodPost)
	api.HandleFunc("/results/{id}", MetricsMiddleware(s.requireAuth(s.handleDeleteResult), "result")).Methods(http.MethodDelete)

	api.HandleFunc("/top-times", MetricsMiddleware(s.handleTopTimes, "top_times")).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", Message: s.name + " is running"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.InfoResponse{Name: s.name, Version: Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: msg})
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

// writeStoreError maps repository errors to responses. notFound is the
// message for missing rows.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(r.Context(), "store failure",
			logger.String("requestID", RequestID(r.Context())),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
