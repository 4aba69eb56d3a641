package api

import (
	"errors"
	"net/http"

	"github.com/okian/xcroster/internal/domain/auth"
	"github.com/okian/xcroster/internal/domain/model"
	"github.com/okian/xcroster/internal/domain/types"
)

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decode(w, r, &creds); err != nil || creds.Password == "" {
		writeError(w, http.StatusBadRequest, auth.ErrPasswordRequired.Error())
		return
	}
	token, _, err := s.auth.Login(r.Context(), creds.Password)
	switch {
	case errors.Is(err, auth.ErrPasswordRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	writeJSON(w, http.StatusOK, types.LoginResponse{Token: token, Message: "Login successful"})
}

// handleVerify handles GET /api/auth/verify.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token, err := bearer(r)
	switch {
	case errors.Is(err, ErrNoAuthorization):
		writeJSON(w, http.StatusUnauthorized, types.VerifyResponse{Error: "No token provided"})
		return
	case err != nil:
		writeJSON(w, http.StatusUnauthorized, types.VerifyResponse{Error: "Invalid format"})
		return
	}
	if err := s.auth.Verify(r.Context(), token); err != nil {
		writeJSON(w, http.StatusUnauthorized, types.VerifyResponse{Error: auth.ErrInvalidToken.Error()})
		return
	}
	writeJSON(w, http.StatusOK, types.VerifyResponse{Valid: true})
}

// handleLogout handles POST /api/auth/logout. It always succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, err := bearer(r); err == nil {
		s.auth.Logout(r.Context(), token)
	}
	writeMessage(w, "Logged out successfully")
}
