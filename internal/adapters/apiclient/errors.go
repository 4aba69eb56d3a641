package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for API client errors.
var (
	// ErrTransport wraps failures where no HTTP response was received.
	ErrTransport = errors.New("transport failure")
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
	// ErrDecode wraps a 2xx response whose body could not be decoded.
	ErrDecode = errors.New("decode response")
)

// Error is the uniform shape of every non-2xx response.
type Error struct {
	Op     string
	Status int
	// Message is the server's error (or message) field, else "API error: <status>".
	Message string
	// ServerMessage reports whether Message came from the response body.
	ServerMessage bool
}

func newStatusError(op string, status int, serverText string) *Error {
	if serverText != "" {
		return &Error{Op: op, Status: status, Message: serverText, ServerMessage: true}
	}
	return &Error{Op: op, Status: status, Message: fmt.Sprintf("API error: %d", status)}
}

// Error returns the surfaced message.
func (e *Error) Error() string { return e.Message }

// Is maps well-known statuses to sentinel errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Message collapses any client error into the single string shown to users.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
