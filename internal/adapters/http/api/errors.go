package api

import "errors"

// Sentinel errors for request handling.
var (
	// ErrBadRequest wraps request bodies that cannot be decoded.
	ErrBadRequest = errors.New("bad request")
	// ErrNoAuthorization means the Authorization header is missing.
	ErrNoAuthorization = errors.New("Authorization header required")
	// ErrAuthorizationFormat means the header is not "Bearer <token>".
	ErrAuthorizationFormat = errors.New("Invalid authorization format")
)
