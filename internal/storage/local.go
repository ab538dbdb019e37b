package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/claude/occam/internal/models"
)

// storageKey is the fixed key the whole aggregate lives under, kept
// identical to the browser build's localStorage key so exported blobs
// stay interchangeable.
const storageKey = "occam-protocol-data"

// Local implements Provider against an embedded single-key store: the whole
// AppData aggregate is one JSON document in a SQLite key/value table. Every
// read deserializes the full blob, every write overwrites it in a single
// statement, which is all the atomicity the contract asks for.
type Local struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenLocal opens (or creates) the local store at dir/local.db.
func OpenLocal(dir string, log *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "local.db"))
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS app_data (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating app_data table: %w", err)
	}

	return &Local{db: db, log: log}, nil
}

// Close closes the underlying store.
func (l *Local) Close() error {
	return l.db.Close()
}

// read loads and normalizes the aggregate, falling back to defaults when
// the key is absent or the blob is unreadable.
func (l *Local) read(ctx context.Context) models.AppData {
	var blob string
	err := l.db.QueryRowContext(ctx,
		`SELECT value FROM app_data WHERE key = ?`, storageKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultAppData()
	}
	if err != nil {
		l.log.Error("local: reading aggregate", "error", err)
		return models.DefaultAppData()
	}

	var data models.AppData
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		l.log.Error("local: decoding aggregate", "error", err)
		return models.DefaultAppData()
	}
	data.Normalize()
	return data
}

// write serializes and overwrites the aggregate under the fixed key.
func (l *Local) write(ctx context.Context, data models.AppData) bool {
	blob, err := json.Marshal(data)
	if err != nil {
		l.log.Error("local: encoding aggregate", "error", err)
		return false
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO app_data (key, value) VALUES (?, ?)`,
		storageKey, string(blob))
	if err != nil {
		l.log.Error("local: writing aggregate", "error", err)
		return false
	}
	return true
}

func (l *Local) GetStoredData(ctx context.Context) models.AppData {
	return l.read(ctx)
}

func (l *Local) SaveStoredData(ctx context.Context, data models.AppData) bool {
	return l.write(ctx, data)
}

func (l *Local) AddSession(ctx context.Context, session models.TrainingSession) bool {
	if session.ID == "" {
		session.ID = models.NewID()
	}
	if session.CreatedAt == 0 {
		now := models.NowMillis()
		session.CreatedAt = now
		session.UpdatedAt = now
	}
	data := l.read(ctx)
	data.Sessions = append(data.Sessions, session)
	return l.write(ctx, data)
}

func (l *Local) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) bool {
	data := l.read(ctx)
	for i := range data.Sessions {
		if data.Sessions[i].ID == id {
			data.Sessions[i].Apply(patch, models.NowMillis())
			return l.write(ctx, data)
		}
	}
	return false
}

func (l *Local) DeleteSession(ctx context.Context, id string) bool {
	data := l.read(ctx)
	kept := data.Sessions[:0]
	for _, s := range data.Sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	data.Sessions = kept
	return l.write(ctx, data)
}

func (l *Local) GetSessions(ctx context.Context) []models.TrainingSession {
	return l.read(ctx).Sessions
}

func (l *Local) GetSettings(ctx context.Context) models.AppSettings {
	return l.read(ctx).Settings
}

func (l *Local) UpdateSettings(ctx context.Context, patch models.SettingsPatch) bool {
	data := l.read(ctx)
	data.Settings.Apply(patch)
	return l.write(ctx, data)
}

func (l *Local) AddMeasurement(ctx context.Context, measurement models.Measurement) bool {
	if measurement.ID == "" {
		measurement.ID = models.NewID()
	}
	if measurement.CreatedAt == 0 {
		now := models.NowMillis()
		measurement.CreatedAt = now
		measurement.UpdatedAt = now
	}
	data := l.read(ctx)
	data.Measurements = append(data.Measurements, measurement)
	return l.write(ctx, data)
}

func (l *Local) UpdateMeasurement(ctx context.Context, id string, patch models.MeasurementPatch) bool {
	data := l.read(ctx)
	for i := range data.Measurements {
		if data.Measurements[i].ID == id {
			data.Measurements[i].Apply(patch, models.NowMillis())
			return l.write(ctx, data)
		}
	}
	return false
}

func (l *Local) DeleteMeasurement(ctx context.Context, id string) bool {
	data := l.read(ctx)
	kept := data.Measurements[:0]
	for _, m := range data.Measurements {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	data.Measurements = kept
	return l.write(ctx, data)
}

func (l *Local) GetMeasurements(ctx context.Context) []models.Measurement {
	return l.read(ctx).Measurements
}

func (l *Local) GetUserProfile(ctx context.Context) *models.UserProfile {
	return l.read(ctx).UserProfile
}

func (l *Local) UpdateUserProfile(ctx context.Context, patch models.ProfilePatch) bool {
	data := l.read(ctx)
	if data.UserProfile == nil {
		data.UserProfile = &models.UserProfile{}
	}
	data.UserProfile.Apply(patch)
	return l.write(ctx, data)
}

func (l *Local) IsOnboardingCompleted(ctx context.Context) bool {
	profile := l.GetUserProfile(ctx)
	return profile != nil && profile.OnboardingCompleted
}

func (l *Local) CompleteOnboarding(ctx context.Context) bool {
	completed := true
	return l.UpdateUserProfile(ctx, models.ProfilePatch{OnboardingCompleted: &completed})
}

func (l *Local) GetScheduledReminders(ctx context.Context) []models.ScheduledReminder {
	return l.read(ctx).ScheduledReminders
}

func (l *Local) AddScheduledReminder(ctx context.Context, date string, variant models.Variant) *models.ScheduledReminder {
	data := l.read(ctx)
	for i := range data.ScheduledReminders {
		r := &data.ScheduledReminders[i]
		if !r.Completed && r.Date == date && r.Variant == variant {
			existing := *r
			return &existing
		}
	}

	reminder := models.ScheduledReminder{
		ID:        models.NewReminderID(),
		Date:      date,
		Variant:   variant,
		CreatedAt: models.NowMillis(),
		Completed: false,
	}
	data.ScheduledReminders = append(data.ScheduledReminders, reminder)
	if !l.write(ctx, data) {
		return nil
	}
	return &reminder
}

func (l *Local) MarkReminderCompleted(ctx context.Context, id string) bool {
	data := l.read(ctx)
	for i := range data.ScheduledReminders {
		if data.ScheduledReminders[i].ID == id {
			data.ScheduledReminders[i].Completed = true
			return l.write(ctx, data)
		}
	}
	return false
}

func (l *Local) DeleteScheduledReminder(ctx context.Context, id string) bool {
	data := l.read(ctx)
	kept := data.ScheduledReminders[:0]
	for _, r := range data.ScheduledReminders {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	data.ScheduledReminders = kept
	return l.write(ctx, data)
}

func (l *Local) ExportData(ctx context.Context) string {
	return exportJSON(l.read(ctx))
}

func (l *Local) ImportData(ctx context.Context, jsonStr string) bool {
	data, err := parseImport(jsonStr)
	if err != nil {
		l.log.Error("local: import rejected", "error", err)
		return false
	}
	return l.write(ctx, *data)
}

func (l *Local) ClearAllData(ctx context.Context) bool {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM app_data WHERE key = ?`, storageKey)
	if err != nil {
		l.log.Error("local: clearing aggregate", "error", err)
		return false
	}
	return true
}
