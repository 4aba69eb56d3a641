package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/xcroster/internal/domain/model"
)

const meetNotFound = "Meet not found"

// handleListMeets handles GET /api/meets.
func (s *Server) handleListMeets(w http.ResponseWriter, r *http.Request) {
	meets, err := s.store.ListMeets(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, meets)
}

// handleGetMeet handles GET /api/meets/{id}.
func (s *Server) handleGetMeet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meet ID")
		return
	}
	m, err := s.store.GetMeet(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, meetNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleCreateMeet handles POST /api/meets.
func (s *Server) handleCreateMeet(w http.ResponseWriter, r *http.Request) {
	in, msg := readMeet(w, r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	id, err := s.store.CreateMeet(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, model.Created{ID: id, Message: "Meet created"})
}

// handleUpdateMeet handles PUT /api/meets/{id}.
func (s *Server) handleUpdateMeet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meet ID")
		return
	}
	in, msg := readMeet(w, r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.store.UpdateMeet(r.Context(), id, in); err != nil {
		s.writeStoreError(w, r, err, meetNotFound)
		return
	}
	writeMessage(w, "Meet updated")
}

// handleDeleteMeet handles DELETE /api/meets/{id}. Results of the meet go with it.
func (s *Server) handleDeleteMeet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meet ID")
		return
	}
	if err := s.store.DeleteMeet(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err, meetNotFound)
		return
	}
	writeMessage(w, "Meet deleted")
}

// handleMeetResults handles GET /api/meets/{id}/results.
func (s *Server) handleMeetResults(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meet ID")
		return
	}
	results, err := s.store.MeetResults(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, meetNotFound)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func readMeet(w http.ResponseWriter, r *http.Request) (model.MeetInput, string) {
	var in model.MeetInput
	if err := decode(w, r, &in); err != nil {
		return in, "Invalid request body"
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.Name == "":
		return in, "Name is required"
	case in.Date == "":
		return in, "Date is required"
	case in.Location == "":
		return in, "Location is required"
	}
	if _, err := time.Parse(model.DateLayout, in.Date); err != nil {
		return in, "Invalid date format. Use YYYY-MM-DD"
	}
	return in, ""
}
