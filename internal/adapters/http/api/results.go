package api

import (
	"net/http"

	"github.com/okian/xcroster/internal/domain/model"
)

// handleCreateResult handles POST /api/results.
func (s *Server) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	var in model.ResultInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch {
	case in.AthleteID <= 0:
		writeError(w, http.StatusBadRequest, "Athlete ID is required")
		return
	case in.MeetID <= 0:
		writeError(w, http.StatusBadRequest, "Meet ID is required")
		return
	case in.Time == "":
		writeError(w, http.StatusBadRequest, "Time is required")
		return
	}
	if _, err := model.ParseRaceTime(in.Time); err != nil {
		writeError(w, http.StatusBadRequest, "Time must be in MM:SS format")
		return
	}
	id, err := s.store.CreateResult(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, model.Created{ID: id, Message: "Result created"})
}

// handleDeleteResult handles DELETE /api/results/{id}.
func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid result ID")
		return
	}
	if err := s.store.DeleteResult(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err, "Result not found")
		return
	}
	writeMessage(w, "Result deleted")
}

// handleTopTimes handles GET /api/top-times.
func (s *Server) handleTopTimes(w http.ResponseWriter, r *http.Request) {
	times, err := s.store.TopTimes(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, times)
}
