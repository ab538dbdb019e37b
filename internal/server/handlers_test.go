package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/claude/occam/internal/config"
	"github.com/claude/occam/internal/models"
	"github.com/claude/occam/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	if err := store.RunMigrations(cfg, "../../migrations"); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	st, err := store.OpenSQLite(cfg.Path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

// TestSessionLifecycle walks a session through create, list, update, and
// delete over the HTTP surface.
func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/sessions", models.TrainingSession{
		Date:    "2024-01-15",
		Variant: models.VariantA,
		Exercises: []models.Exercise{
			{Name: "Lat Pulldown", Weight: 40, Unit: "kg"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/sessions", nil)
	sessions := decodeBody[[]models.TrainingSession](t, rec)
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].ID == "" {
		t.Error("session id was not generated")
	}
	if sessions[0].CreatedAt == 0 || sessions[0].CreatedAt != sessions[0].UpdatedAt {
		t.Errorf("timestamps = %d/%d, want equal and non-zero",
			sessions[0].CreatedAt, sessions[0].UpdatedAt)
	}
	if sessions[0].Exercises[0].Weight != 40 {
		t.Errorf("exercise weight = %v, want 40", sessions[0].Exercises[0].Weight)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/sessions/"+sessions[0].ID,
		map[string]string{"date": "2024-01-16"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/sessions/"+sessions[0].ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/sessions", nil)
	if got := decodeBody[[]models.TrainingSession](t, rec); len(got) != 0 {
		t.Errorf("got %d sessions after delete, want 0", len(got))
	}
}

// TestUpdateMissingReturns404 verifies updates against unknown ids are 404s.
func TestUpdateMissingReturns404(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/sessions/nope",
		map[string]string{"date": "2024-01-16"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("session update status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/measurements/nope",
		map[string]float64{"weight": 80})
	if rec.Code != http.StatusNotFound {
		t.Errorf("measurement update status = %d, want 404", rec.Code)
	}
}

// TestDeleteMissingIsIdempotent verifies deleting unknown ids still succeeds.
func TestDeleteMissingIsIdempotent(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/sessions/ghost", "/api/measurements/ghost", "/api/reminders/ghost"} {
		rec := doRequest(t, s, http.MethodDelete, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("DELETE %s status = %d, want 200", path, rec.Code)
		}
	}
}

// TestCreateSessionRejectsBadInput verifies date and variant validation.
func TestCreateSessionRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing date", map[string]any{"variant": "A"}},
		{"bad date", map[string]any{"date": "Jan 15", "variant": "A"}},
		{"bad variant", map[string]any{"date": "2024-01-15", "variant": "C"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/sessions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

// TestSettingsMerge verifies GET returns seeded defaults and PUT merges
// partially.
func TestSettingsMerge(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/settings", nil)
	settings := decodeBody[models.AppSettings](t, rec)
	if settings.Unit != "kg" || settings.Theme != "light" {
		t.Errorf("defaults = %+v", settings)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/settings", map[string]string{"theme": "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/settings", nil)
	settings = decodeBody[models.AppSettings](t, rec)
	if settings.Theme != "dark" {
		t.Errorf("theme = %q, want dark", settings.Theme)
	}
	if settings.Notifications.Time != "18:00" {
		t.Errorf("notifications.time = %q, want unchanged 18:00", settings.Notifications.Time)
	}
}

// TestProfileNullUntilCreated verifies GET /api/profile returns null before
// onboarding and the record after.
func TestProfileNullUntilCreated(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/profile", nil)
	if got := rec.Body.String(); got != "null\n" {
		t.Errorf("body = %q, want null", got)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/profile", map[string]any{
		"name": "Ada", "height": 170.0, "initialWeight": 65.0, "onboardingCompleted": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/profile", nil)
	profile := decodeBody[*models.UserProfile](t, rec)
	if profile == nil || profile.Name != "Ada" || !profile.OnboardingCompleted {
		t.Errorf("profile = %+v", profile)
	}
}

// TestReminderDedupe verifies POST /api/reminders returns the existing
// active reminder for a duplicate date/variant pair.
func TestReminderDedupe(t *testing.T) {
	s := newTestServer(t)

	body := map[string]string{"date": "2024-03-01", "variant": "B"}
	first := decodeBody[models.ScheduledReminder](t, doRequest(t, s, http.MethodPost, "/api/reminders", body))
	second := decodeBody[models.ScheduledReminder](t, doRequest(t, s, http.MethodPost, "/api/reminders", body))
	if first.ID != second.ID {
		t.Errorf("duplicate POST returned id %q, want existing %q", second.ID, first.ID)
	}

	rec := doRequest(t, s, http.MethodPut, "/api/reminders/"+first.ID+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d", rec.Code)
	}

	third := decodeBody[models.ScheduledReminder](t, doRequest(t, s, http.MethodPost, "/api/reminders", body))
	if third.ID == first.ID {
		t.Error("completed reminder blocked a new one")
	}
}

// TestAggregateReplaceRoundTrip verifies the PUT /api/data, GET /api/data
// round trip including defaulted collections.
func TestAggregateReplaceRoundTrip(t *testing.T) {
	s := newTestServer(t)

	payload := models.AppData{
		Sessions: []models.TrainingSession{{
			ID: "s1", Date: "2024-01-15", Variant: models.VariantA,
			Exercises: []models.Exercise{{Name: "Lat Pulldown", Weight: 40, Unit: "kg"}},
			CreatedAt: 1700000000000, UpdatedAt: 1700000000000,
		}},
		Measurements: []models.Measurement{{
			ID: "m1", Date: "2024-01-15", Weight: 82.5,
			MeasurementUnit: "cm", WeightUnit: "kg",
			CreatedAt: 1700000000000, UpdatedAt: 1700000000000,
		}},
		Settings: models.DefaultSettings(),
	}

	rec := doRequest(t, s, http.MethodPut, "/api/data", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/data", nil)
	data := decodeBody[models.AppData](t, rec)
	if len(data.Sessions) != 1 || data.Sessions[0].ID != "s1" {
		t.Errorf("sessions = %+v", data.Sessions)
	}
	if len(data.Measurements) != 1 || data.Measurements[0].Weight != 82.5 {
		t.Errorf("measurements = %+v", data.Measurements)
	}
	if data.ScheduledReminders == nil || len(data.ScheduledReminders) != 0 {
		t.Errorf("reminders = %+v, want empty", data.ScheduledReminders)
	}
}

// TestResetData verifies DELETE /api/data restores documented defaults.
func TestResetData(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/sessions", models.TrainingSession{
		Date: "2024-01-15", Variant: models.VariantA,
	})
	doRequest(t, s, http.MethodPut, "/api/settings", map[string]string{"theme": "dark"})

	rec := doRequest(t, s, http.MethodDelete, "/api/data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/data", nil)
	data := decodeBody[models.AppData](t, rec)
	if len(data.Sessions) != 0 {
		t.Errorf("got %d sessions after reset, want 0", len(data.Sessions))
	}
	if data.Settings.Theme != "light" || data.Settings.Unit != "kg" {
		t.Errorf("settings = %+v, want defaults", data.Settings)
	}
	if len(data.Settings.Notifications.Days) != 3 || data.Settings.Notifications.Days[0] != "monday" {
		t.Errorf("notification days = %v", data.Settings.Notifications.Days)
	}
}
