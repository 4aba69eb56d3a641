package auth

import "errors"

// Sentinel kinds for auth errors. Messages are the ones the API returns.
var (
	ErrPasswordRequired = errors.New("Password is required")
	ErrInvalidPassword  = errors.New("Invalid password")
	ErrInvalidToken     = errors.New("Invalid or expired token")
)
