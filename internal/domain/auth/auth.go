// Package auth issues and checks admin session tokens for the roster server.
//
// There is a single admin identified only by a password. Successful logins
// receive an HS256 JWT whose ID is kept in a Registry; logout revokes it.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

const subject = "admin"

// Issuer checks the admin password and manages tokens.
type Issuer struct {
	hash      []byte
	key       []byte
	ttl       time.Duration
	cost      int
	maxTokens int
	now       func() time.Time
	tokens    *Registry
	log       logger.Logger
}

// NewIssuer hashes password with bcrypt and prepares a signing key.
func NewIssuer(password string, opts ...Option) (*Issuer, error) {
	if password == "" {
		return nil, ErrPasswordRequired
	}
	i := &Issuer{
		ttl:  DefaultTTL,
		cost: bcrypt.DefaultCost,
		now:  time.Now,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.key == nil {
		i.key = make([]byte, 32)
		if _, err := rand.Read(i.key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), i.cost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	i.hash = hash
	i.tokens = NewRegistry(i.maxTokens)
	return i, nil
}

// Login exchanges the admin password for a token.
func (i *Issuer) Login(ctx context.Context, password string) (string, time.Time, error) {
	if password == "" {
		metrics.RecordLogin("missing")
		return "", time.Time{}, ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword(i.hash, []byte(password)); err != nil {
		metrics.RecordLogin("invalid")
		i.log.Info(ctx, "admin login rejected")
		return "", time.Time{}, ErrInvalidPassword
	}

	now := i.now()
	exp := now.Add(i.ttl)
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	i.tokens.Record(jti, exp)
	metrics.RecordLogin("success")
	metrics.UpdateActiveTokens(int(i.tokens.Size()))
	i.log.Info(ctx, "admin logged in", logger.String("jti", jti))
	return signed, exp, nil
}

// Verify accepts a token that is well signed, unexpired and not revoked.
func (i *Issuer) Verify(ctx context.Context, token string) error {
	claims, err := i.parse(token, true)
	if err != nil {
		i.log.Debug(ctx, "token rejected", logger.Error(err))
		return ErrInvalidToken
	}
	if !i.tokens.Active(claims.ID, i.now()) {
		return ErrInvalidToken
	}
	return nil
}

// Logout revokes token. Unknown or malformed tokens are ignored.
func (i *Issuer) Logout(ctx context.Context, token string) {
	claims, err := i.parse(token, false)
	if err != nil {
		return
	}
	if i.tokens.Revoke(claims.ID) {
		i.log.Info(ctx, "admin logged out", logger.String("jti", claims.ID))
	}
	metrics.UpdateActiveTokens(int(i.tokens.Size()))
}

// Active returns the number of registered tokens.
func (i *Issuer) Active() int64 { return i.tokens.Size() }

// Purge drops expired tokens.
func (i *Issuer) Purge(ctx context.Context) int {
	n := i.tokens.Purge(i.now())
	if n > 0 {
		i.log.Debug(ctx, "purged expired tokens", logger.Int("count", n))
	}
	metrics.UpdateActiveTokens(int(i.tokens.Size()))
	return n
}

// Run purges expired tokens every interval until ctx is done.
func (i *Issuer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Purge(ctx)
		}
	}
}

func (i *Issuer) parse(token string, validate bool) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if !validate {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, errors.New("token without id")
	}
	return &claims, nil
}
