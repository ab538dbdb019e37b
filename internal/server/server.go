// Package server exposes the REST backend: the full aggregate surface plus
// per-collection CRUD, backed by the relational store.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/occam/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  store.Store
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. When apiKey is
// non-empty, every API route requires a matching X-API-Key header.
func New(st store.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  st,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Get("/data", s.handleGetData)
		r.Put("/data", s.handleReplaceData)
		r.Delete("/data", s.handleResetData)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Put("/sessions/{id}", s.handleUpdateSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Get("/measurements", s.handleListMeasurements)
		r.Post("/measurements", s.handleCreateMeasurement)
		r.Put("/measurements/{id}", s.handleUpdateMeasurement)
		r.Delete("/measurements/{id}", s.handleDeleteMeasurement)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)

		r.Get("/reminders", s.handleListReminders)
		r.Post("/reminders", s.handleCreateReminder)
		r.Put("/reminders/{id}/complete", s.handleCompleteReminder)
		r.Delete("/reminders/{id}", s.handleDeleteReminder)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
