package session

import "errors"

// Sentinel errors for the session store.
var (
	ErrDisposed = errors.New("session disposed")
	// ErrLoginFailed matches every LoginError.
	ErrLoginFailed = errors.New("Login failed") //nolint:staticcheck // user-facing fallback text
)

// LoginError is returned by Login. Message is the server's text when it sent
// one, else "Login failed".
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// Is makes LoginError match ErrLoginFailed.
func (e *LoginError) Is(target error) bool { return target == ErrLoginFailed }
