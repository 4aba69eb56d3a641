// Package types contains the JSON envelopes exchanged between the roster API and its clients
package types

// ErrorResponse is the body of every non-2xx reply.
// Some proxies answer with message instead of error; clients read both.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns the first non-empty of Error and Message.
func (e ErrorResponse) Text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// MessageResponse acknowledges updates, deletes and logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse carries a freshly issued session token.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// VerifyResponse reports whether the presented bearer token is live.
type VerifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// HealthResponse is served by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// InfoResponse is served by /api.
type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
