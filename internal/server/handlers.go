package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/occam/internal/models"
	"github.com/claude/occam/internal/store"
	"github.com/claude/occam/internal/validate"
)

var successBody = map[string]bool{"success": true}

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.GetAppData(r.Context())
	if err != nil {
		s.log.Error("reading aggregate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleReplaceData(w http.ResponseWriter, r *http.Request) {
	var data models.AppData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	data.Normalize()

	if err := s.store.ReplaceAppData(r.Context(), &data); err != nil {
		s.log.Error("replacing aggregate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleResetData(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Reset(r.Context()); err != nil {
		s.log.Error("resetting aggregate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var session models.TrainingSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if res := validate.Date(session.Date); !res.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": res.Err})
		return
	}
	if !session.Variant.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "variant must be A or B"})
		return
	}

	if session.ID == "" {
		session.ID = models.NewID()
	}
	if session.CreatedAt == 0 {
		now := models.NowMillis()
		session.CreatedAt = now
		session.UpdatedAt = now
	}
	if session.Exercises == nil {
		session.Exercises = []models.Exercise{}
	}

	if err := s.store.InsertSession(r.Context(), session); err != nil {
		s.log.Error("inserting session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var patch models.SessionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	err := s.store.UpdateSession(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
		return
	}
	if err != nil {
		s.log.Error("updating session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.log.Error("deleting session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	measurements, err := s.store.ListMeasurements(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, measurements)
}

func (s *Server) handleCreateMeasurement(w http.ResponseWriter, r *http.Request) {
	var m models.Measurement
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if res := validate.Date(m.Date); !res.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": res.Err})
		return
	}

	if m.ID == "" {
		m.ID = models.NewID()
	}
	if m.CreatedAt == 0 {
		now := models.NowMillis()
		m.CreatedAt = now
		m.UpdatedAt = now
	}
	if m.MeasurementUnit == "" {
		m.MeasurementUnit = "cm"
	}
	if m.WeightUnit == "" {
		m.WeightUnit = "kg"
	}

	if err := s.store.InsertMeasurement(r.Context(), m); err != nil {
		s.log.Error("inserting measurement", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleUpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	var patch models.MeasurementPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	err := s.store.UpdateMeasurement(r.Context(), chi.URLParam(r, "id"), patch)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Measurement not found"})
		return
	}
	if err != nil {
		s.log.Error("updating measurement", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMeasurement(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.log.Error("deleting measurement", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
