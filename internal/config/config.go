// Package config defines server and client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Config contains process configuration shared by the roster server and the xcctl client.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address of the server, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabasePath is the SQLite file backing the server. ":memory:" keeps it in RAM.
	DatabasePath string `koanf:"database_path"`

	// AdminPassword is the single admin credential accepted by /api/auth/login.
	AdminPassword string `koanf:"admin_password"`

	// TokenTTLMinutes bounds the lifetime of issued session tokens.
	TokenTTLMinutes int `koanf:"token_ttl_minutes"`

	// SigningKey is the HS256 key for session tokens. Empty means a random key per process.
	SigningKey string `koanf:"signing_key"`

	// SeedDemoData loads the demo roster into an empty database on startup.
	SeedDemoData bool `koanf:"seed_demo_data"`

	// BaseURL is the server the client talks to.
	BaseURL string `koanf:"base_url"`

	// TokenFile holds the persisted client session. Empty means the user config dir.
	TokenFile string `koanf:"token_file"`

	// RequestTimeoutMS caps each client request; 0 leaves the transport default.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxSearchResults caps rows shown by athlete searches; 0 means no cap.
	MaxSearchResults int `koanf:"max_search_results"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":8080",
		DatabasePath:     "xcroster.db",
		AdminPassword:    "admin123",
		TokenTTLMinutes:  24 * 60,
		SeedDemoData:     true,
		BaseURL:          "http://localhost:8080",
		RequestTimeoutMS: 0,
		MaxSearchResults: 0,
	}
}

// TokenTTL returns the session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// RequestTimeout returns the client request timeout; zero disables it.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
