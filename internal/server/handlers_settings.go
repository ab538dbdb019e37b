package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/occam/internal/models"
	"github.com/claude/occam/internal/validate"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.store.UpdateSettings(r.Context(), patch); err != nil {
		s.log.Error("updating settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

// handleGetProfile returns the profile record, or a JSON null before
// onboarding has created one.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.GetProfile(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.store.UpdateProfile(r.Context(), patch); err != nil {
		s.log.Error("updating profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.store.ListReminders(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reminders)
}

// handleCreateReminder creates a reminder, or returns the existing active
// one for the same date and variant.
func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date    string         `json:"date"`
		Variant models.Variant `json:"variant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if res := validate.Date(req.Date); !res.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": res.Err})
		return
	}
	if !req.Variant.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "variant must be A or B"})
		return
	}

	reminder, err := s.store.AddReminder(r.Context(), req.Date, req.Variant)
	if err != nil {
		s.log.Error("adding reminder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.CompleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.log.Error("completing reminder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.log.Error("deleting reminder", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, successBody)
}
