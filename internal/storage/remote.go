package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/claude/occam/internal/models"
)

// Remote implements Provider by translating each operation into one HTTP
// request against the REST backend. It is a pure protocol translator: no
// retries, no caching. Transport failures resolve to the contract's failure
// values rather than propagating.
type Remote struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

// NewRemote creates a Remote provider targeting the given base URL. When
// apiKey is non-empty it is sent as X-API-Key on every request.
func NewRemote(baseURL, apiKey string, log *slog.Logger) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Close is a no-op; the remote provider holds no local resources.
func (r *Remote) Close() error {
	return nil
}

// do issues one JSON request and decodes the response into out (when
// non-nil). Any non-2xx status is an error.
func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote: %s %s returned %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("remote: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (r *Remote) GetStoredData(ctx context.Context) models.AppData {
	var data models.AppData
	if err := r.do(ctx, http.MethodGet, "/api/data", nil, &data); err != nil {
		r.log.Error("remote: fetching aggregate", "error", err)
		return models.DefaultAppData()
	}
	data.Normalize()
	return data
}

func (r *Remote) SaveStoredData(ctx context.Context, data models.AppData) bool {
	if err := r.do(ctx, http.MethodPut, "/api/data", data, nil); err != nil {
		r.log.Error("remote: saving aggregate", "error", err)
		return false
	}
	return true
}

func (r *Remote) AddSession(ctx context.Context, session models.TrainingSession) bool {
	if err := r.do(ctx, http.MethodPost, "/api/sessions", session, nil); err != nil {
		r.log.Error("remote: adding session", "error", err)
		return false
	}
	return true
}

func (r *Remote) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) bool {
	if err := r.do(ctx, http.MethodPut, "/api/sessions/"+id, patch, nil); err != nil {
		r.log.Error("remote: updating session", "id", id, "error", err)
		return false
	}
	return true
}

func (r *Remote) DeleteSession(ctx context.Context, id string) bool {
	if err := r.do(ctx, http.MethodDelete, "/api/sessions/"+id, nil, nil); err != nil {
		r.log.Error("remote: deleting session", "id", id, "error", err)
		return false
	}
	return true
}

func (r *Remote) GetSessions(ctx context.Context) []models.TrainingSession {
	var sessions []models.TrainingSession
	if err := r.do(ctx, http.MethodGet, "/api/sessions", nil, &sessions); err != nil {
		r.log.Error("remote: fetching sessions", "error", err)
		return []models.TrainingSession{}
	}
	if sessions == nil {
		sessions = []models.TrainingSession{}
	}
	return sessions
}

func (r *Remote) GetSettings(ctx context.Context) models.AppSettings {
	var settings models.AppSettings
	if err := r.do(ctx, http.MethodGet, "/api/settings", nil, &settings); err != nil {
		r.log.Error("remote: fetching settings", "error", err)
		return models.DefaultSettings()
	}
	settings.Normalize()
	return settings
}

func (r *Remote) UpdateSettings(ctx context.Context, patch models.SettingsPatch) bool {
	if err := r.do(ctx, http.MethodPut, "/api/settings", patch, nil); err != nil {
		r.log.Error("remote: updating settings", "error", err)
		return false
	}
	return true
}

func (r *Remote) AddMeasurement(ctx context.Context, measurement models.Measurement) bool {
	if err := r.do(ctx, http.MethodPost, "/api/measurements", measurement, nil); err != nil {
		r.log.Error("remote: adding measurement", "error", err)
		return false
	}
	return true
}

func (r *Remote) UpdateMeasurement(ctx context.Context, id string, patch models.MeasurementPatch) bool {
	if err := r.do(ctx, http.MethodPut, "/api/measurements/"+id, patch, nil); err != nil {
		r.log.Error("remote: updating measurement", "id", id, "error", err)
		return false
	}
	return true
}

func (r *Remote) DeleteMeasurement(ctx context.Context, id string) bool {
	if err := r.do(ctx, http.MethodDelete, "/api/measurements/"+id, nil, nil); err != nil {
		r.log.Error("remote: deleting measurement", "id", id, "error", err)
		return false
	}
	return true
}

func (r *Remote) GetMeasurements(ctx context.Context) []models.Measurement {
	var measurements []models.Measurement
	if err := r.do(ctx, http.MethodGet, "/api/measurements", nil, &measurements); err != nil {
		r.log.Error("remote: fetching measurements", "error", err)
		return []models.Measurement{}
	}
	if measurements == nil {
		measurements = []models.Measurement{}
	}
	return measurements
}

func (r *Remote) GetUserProfile(ctx context.Context) *models.UserProfile {
	var profile *models.UserProfile
	if err := r.do(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		r.log.Error("remote: fetching profile", "error", err)
		return nil
	}
	return profile
}

func (r *Remote) UpdateUserProfile(ctx context.Context, patch models.ProfilePatch) bool {
	if err := r.do(ctx, http.MethodPut, "/api/profile", patch, nil); err != nil {
		r.log.Error("remote: updating profile", "error", err)
		return false
	}
	return true
}

func (r *Remote) IsOnboardingCompleted(ctx context.Context) bool {
	profile := r.GetUserProfile(ctx)
	return profile != nil && profile.OnboardingCompleted
}

func (r *Remote) CompleteOnboarding(ctx context.Context) bool {
	completed := true
	return r.UpdateUserProfile(ctx, models.ProfilePatch{OnboardingCompleted: &completed})
}

func (r *Remote) GetScheduledReminders(ctx context.Context) []models.ScheduledReminder {
	var reminders []models.ScheduledReminder
	if err := r.do(ctx, http.MethodGet, "/api/reminders", nil, &reminders); err != nil {
		r.log.Error("remote: fetching reminders", "error", err)
		return []models.ScheduledReminder{}
	}
	if reminders == nil {
		reminders = []models.ScheduledReminder{}
	}
	return reminders
}

func (r *Remote) AddScheduledReminder(ctx context.Context, date string, variant models.Variant) *models.ScheduledReminder {
	body := map[string]any{"date": date, "variant": variant}
	var reminder models.ScheduledReminder
	if err := r.do(ctx, http.MethodPost, "/api/reminders", body, &reminder); err != nil {
		r.log.Error("remote: adding reminder", "error", err)
		return nil
	}
	return &reminder
}

func (r *Remote) MarkReminderCompleted(ctx context.Context, id string) bool {
	if err := r.do(ctx, http.MethodPut, "/api/reminders/"+id+"/complete", nil, nil); err != nil {
		r.log.Error("remote: completing reminder", "id", id, "error", err)
		return false
	}
	return true
}

func (r *Remote) DeleteScheduledReminder(ctx context.Context, id string) bool {
	if err := r.do(ctx, http.MethodDelete, "/api/reminders/"+id, nil, nil); err != nil {
		r.log.Error("remote: deleting reminder", "id", id, "error", err)
		return false
	}
	return true
}

func (r *Remote) ExportData(ctx context.Context) string {
	return exportJSON(r.GetStoredData(ctx))
}

func (r *Remote) ImportData(ctx context.Context, jsonStr string) bool {
	data, err := parseImport(jsonStr)
	if err != nil {
		r.log.Error("remote: import rejected", "error", err)
		return false
	}
	return r.SaveStoredData(ctx, *data)
}

func (r *Remote) ClearAllData(ctx context.Context) bool {
	if err := r.do(ctx, http.MethodDelete, "/api/data", nil, nil); err != nil {
		r.log.Error("remote: clearing aggregate", "error", err)
		return false
	}
	return true
}
