package auth

import (
	"time"

	"github.com/okian/xcroster/pkg/logger"
)

// Option applies a configuration option to the Issuer.
type Option func(*Issuer)

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithSigningKey sets the HS256 key. Empty keeps the random per-process key.
func WithSigningKey(key string) Option {
	return func(i *Issuer) {
		if key != "" {
			i.key = []byte(key)
		}
	}
}

// WithBcryptCost sets the cost used to hash the admin password.
func WithBcryptCost(cost int) Option {
	return func(i *Issuer) {
		i.cost = cost
	}
}

// WithMaxTokens bounds the active-token registry; 0 means unbounded.
func WithMaxTokens(n int) Option {
	return func(i *Issuer) {
		i.maxTokens = n
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithLogger sets the issuer logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Issuer) {
		if l != nil {
			i.log = l
		}
	}
}
