package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/xcroster/internal/adapters/http/api"
	"github.com/okian/xcroster/internal/adapters/repository"
	"github.com/okian/xcroster/internal/config"
	"github.com/okian/xcroster/internal/domain/auth"
	"github.com/okian/xcroster/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	tokenPurgeEvery   = 10 * time.Minute
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// backend is the assembled server and what must be released with it.
type backend struct {
	srv    *http.Server
	store  *repository.SQLStore
	issuer *auth.Issuer
}

// build opens storage, seeds it when asked and wires the API.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*backend, error) {
	store, err := repository.Open(ctx, cfg.DatabasePath, repository.WithLogger(log.Named("repository")))
	if err != nil {
		return nil, err
	}
	if cfg.SeedDemoData {
		seeded, err := repository.Seed(ctx, store, time.Now())
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if seeded {
			log.Info(ctx, "loaded demo roster", logger.String("database", cfg.DatabasePath))
		}
	}

	issuer, err := auth.NewIssuer(cfg.AdminPassword,
		auth.WithTTL(cfg.TokenTTL()),
		auth.WithSigningKey(cfg.SigningKey),
		auth.WithLogger(log.Named("auth")),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	apiServer := api.NewServer(store, issuer, api.WithLogger(log.Named("api")))
	return &backend{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           apiServer.Router(),
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		store:  store,
		issuer: issuer,
	}, nil
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	b, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.store.Close(); err != nil {
			log.Error(ctx, "closing database failed", logger.Error(err))
		}
	}()

	go b.issuer.Run(ctx, tokenPurgeEvery)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := b.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}
