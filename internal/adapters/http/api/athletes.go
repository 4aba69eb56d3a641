package api

import (
	"net/http"
	"strings"

	"github.com/okian/xcroster/internal/domain/model"
)

const athleteNotFound = "Athlete not found"

// handleListAthletes handles GET /api/athletes.
func (s *Server) handleListAthletes(w http.ResponseWriter, r *http.Request) {
	athletes, err := s.store.ListAthletes(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, athletes)
}

// handleGetAthlete handles GET /api/athletes/{id}.
func (s *Server) handleGetAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid athlete ID")
		return
	}
	a, err := s.store.GetAthlete(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, athleteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleCreateAthlete handles POST /api/athletes.
func (s *Server) handleCreateAthlete(w http.ResponseWriter, r *http.Request) {
	in, msg := readAthlete(w, r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	id, err := s.store.CreateAthlete(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, model.Created{ID: id, Message: "Athlete created"})
}

// handleUpdateAthlete handles PUT /api/athletes/{id}.
func (s *Server) handleUpdateAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid athlete ID")
		return
	}
	in, msg := readAthlete(w, r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.store.UpdateAthlete(r.Context(), id, in); err != nil {
		s.writeStoreError(w, r, err, athleteNotFound)
		return
	}
	writeMessage(w, "Athlete updated")
}

// handleDeleteAthlete handles DELETE /api/athletes/{id}.
func (s *Server) handleDeleteAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid athlete ID")
		return
	}
	if err := s.store.DeleteAthlete(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err, athleteNotFound)
		return
	}
	writeMessage(w, "Athlete deleted")
}

func readAthlete(w http.ResponseWriter, r *http.Request) (model.AthleteInput, string) {
	var in model.AthleteInput
	if err := decode(w, r, &in); err != nil {
		return in, "Invalid request body"
	}
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return in, "Name is required"
	case !in.Grade.Valid():
		return in, "Grade must be between 9 and 12"
	}
	return in, ""
}
