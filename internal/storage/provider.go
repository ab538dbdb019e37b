// Package storage defines the persistence contract the rest of the app is
// written against, with two interchangeable backends: Local (an embedded
// single-key store) and Remote (the REST API). The backend is chosen once
// at startup; nothing outside this package branches on which one is active.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/claude/occam/internal/config"
	"github.com/claude/occam/internal/models"
)

// Provider is the complete set of operations the app may perform against
// persisted state. Every method resolves with its success value or with the
// documented failure value (false, nil, empty, or defaults) — failures are
// logged inside the provider and never escape as errors.
type Provider interface {
	// Bulk aggregate access. SaveStoredData is a full replace.
	GetStoredData(ctx context.Context) models.AppData
	SaveStoredData(ctx context.Context, data models.AppData) bool

	// Sessions.
	AddSession(ctx context.Context, session models.TrainingSession) bool
	UpdateSession(ctx context.Context, id string, patch models.SessionPatch) bool
	DeleteSession(ctx context.Context, id string) bool
	GetSessions(ctx context.Context) []models.TrainingSession

	// Settings singleton, partial-merge semantics.
	GetSettings(ctx context.Context) models.AppSettings
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) bool

	// Measurements.
	AddMeasurement(ctx context.Context, measurement models.Measurement) bool
	UpdateMeasurement(ctx context.Context, id string, patch models.MeasurementPatch) bool
	DeleteMeasurement(ctx context.Context, id string) bool
	GetMeasurements(ctx context.Context) []models.Measurement

	// Profile singleton, created on first write.
	GetUserProfile(ctx context.Context) *models.UserProfile
	UpdateUserProfile(ctx context.Context, patch models.ProfilePatch) bool
	IsOnboardingCompleted(ctx context.Context) bool
	CompleteOnboarding(ctx context.Context) bool

	// Scheduled reminders. Add returns the pre-existing reminder when an
	// active one already exists for the (date, variant) pair.
	GetScheduledReminders(ctx context.Context) []models.ScheduledReminder
	AddScheduledReminder(ctx context.Context, date string, variant models.Variant) *models.ScheduledReminder
	MarkReminderCompleted(ctx context.Context, id string) bool
	DeleteScheduledReminder(ctx context.Context, id string) bool

	// Bulk export/import/reset.
	ExportData(ctx context.Context) string
	ImportData(ctx context.Context, jsonStr string) bool
	ClearAllData(ctx context.Context) bool

	Close() error
}

// Compile-time checks: both backends satisfy the contract.
var (
	_ Provider = (*Local)(nil)
	_ Provider = (*Remote)(nil)
)

// Storage modes, selected once at startup from configuration.
const (
	ModeLocal = "local"
	ModeAPI   = "api"
)

// New selects and constructs the configured Provider. This is the only
// place in the codebase that knows both backends exist.
func New(cfg config.StorageConfig, log *slog.Logger) (Provider, error) {
	switch cfg.Mode {
	case ModeLocal, "":
		return OpenLocal(cfg.DataDir, log)
	case ModeAPI:
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("storage mode %q requires an api_url", cfg.Mode)
		}
		return NewRemote(cfg.APIURL, cfg.APIKey, log), nil
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
}

// parseImport validates and decodes an import payload. The contract requires
// only that a sessions collection and a settings object are present; the
// rest of the aggregate is back-filled by Normalize.
func parseImport(jsonStr string) (*models.AppData, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &probe); err != nil {
		return nil, fmt.Errorf("parsing import payload: %w", err)
	}
	if _, ok := probe["sessions"]; !ok {
		return nil, fmt.Errorf("import payload missing sessions")
	}
	if _, ok := probe["settings"]; !ok {
		return nil, fmt.Errorf("import payload missing settings")
	}

	var data models.AppData
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("decoding import payload: %w", err)
	}
	data.Normalize()
	return &data, nil
}

// exportJSON renders the aggregate in the two-space indented form used by
// the export file.
func exportJSON(data models.AppData) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fallback, _ := json.MarshalIndent(models.DefaultAppData(), "", "  ")
		return string(fallback)
	}
	return string(out)
}
