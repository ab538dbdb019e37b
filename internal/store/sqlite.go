package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/claude/occam/internal/models"
)

// SQLite implements Store on an embedded SQLite database, the default
// driver for single-machine deployments.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file at path. The schema is
// managed by RunMigrations, which must run first.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) ListSessions(ctx context.Context) ([]models.TrainingSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, variant, exercises, created_at, updated_at
		 FROM sessions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	result := []models.TrainingSession{}
	for rows.Next() {
		var sess models.TrainingSession
		var exercises string
		if err := rows.Scan(&sess.ID, &sess.Date, &sess.Variant, &exercises,
			&sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Exercises = decodeExercises(exercises)
		result = append(result, sess)
	}
	return result, rows.Err()
}

func (s *SQLite) InsertSession(ctx context.Context, session models.TrainingSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, date, variant, exercises, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.Date, session.Variant, encodeJSON(session.Exercises),
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *SQLite) getSession(ctx context.Context, id string) (*models.TrainingSession, error) {
	var sess models.TrainingSession
	var exercises string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, date, variant, exercises, created_at, updated_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Date, &sess.Variant, &exercises, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	sess.Exercises = decodeExercises(exercises)
	return &sess, nil
}

func (s *SQLite) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) error {
	sess, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}
	sess.Apply(patch, models.NowMillis())

	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET date = ?, variant = ?, exercises = ?, updated_at = ? WHERE id = ?`,
		sess.Date, sess.Variant, encodeJSON(sess.Exercises), sess.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *SQLite) ListMeasurements(ctx context.Context) ([]models.Measurement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at
		 FROM measurements ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	result := []models.Measurement{}
	for rows.Next() {
		var m models.Measurement
		var body string
		if err := rows.Scan(&m.ID, &m.Date, &m.Weight, &m.BodyFat, &body,
			&m.MeasurementUnit, &m.WeightUnit, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		m.Measurements = decodeBodyMeasurements(body)
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *SQLite) InsertMeasurement(ctx context.Context, m models.Measurement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO measurements (id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Date, m.Weight, m.BodyFat, encodeJSON(m.Measurements),
		m.MeasurementUnit, m.WeightUnit, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	return nil
}

func (s *SQLite) getMeasurement(ctx context.Context, id string) (*models.Measurement, error) {
	var m models.Measurement
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at
		 FROM measurements WHERE id = ?`, id).
		Scan(&m.ID, &m.Date, &m.Weight, &m.BodyFat, &body,
			&m.MeasurementUnit, &m.WeightUnit, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying measurement: %w", err)
	}
	m.Measurements = decodeBodyMeasurements(body)
	return &m, nil
}

func (s *SQLite) UpdateMeasurement(ctx context.Context, id string, patch models.MeasurementPatch) error {
	m, err := s.getMeasurement(ctx, id)
	if err != nil {
		return err
	}
	m.Apply(patch, models.NowMillis())

	_, err = s.db.ExecContext(ctx,
		`UPDATE measurements SET date = ?, weight = ?, body_fat = ?, measurements = ?,
		 measurement_unit = ?, weight_unit = ?, updated_at = ? WHERE id = ?`,
		m.Date, m.Weight, m.BodyFat, encodeJSON(m.Measurements),
		m.MeasurementUnit, m.WeightUnit, m.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("updating measurement: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteMeasurement(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting measurement: %w", err)
	}
	return nil
}

func (s *SQLite) GetSettings(ctx context.Context) (models.AppSettings, error) {
	var settings models.AppSettings
	var notifications, measurementNotifications string
	err := s.db.QueryRowContext(ctx,
		`SELECT unit, notifications, measurement_notifications, theme FROM settings WHERE id = 1`).
		Scan(&settings.Unit, &notifications, &measurementNotifications, &settings.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("querying settings: %w", err)
	}
	settings.Notifications = decodeNotifications(notifications)
	settings.MeasurementNotifications = decodeMeasurementNotifications(measurementNotifications)
	settings.Normalize()
	return settings, nil
}

func (s *SQLite) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.Apply(patch)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (id, unit, notifications, measurement_notifications, theme)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   unit = excluded.unit,
		   notifications = excluded.notifications,
		   measurement_notifications = excluded.measurement_notifications,
		   theme = excluded.theme`,
		settings.Unit, encodeJSON(settings.Notifications),
		encodeJSON(settings.MeasurementNotifications), settings.Theme)
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return nil
}

func (s *SQLite) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	var onboarding int
	err := s.db.QueryRowContext(ctx,
		`SELECT name, height, initial_weight, height_unit, weight_unit, onboarding_completed
		 FROM user_profile WHERE id = 1`).
		Scan(&p.Name, &p.Height, &p.InitialWeight, &p.HeightUnit, &p.WeightUnit, &onboarding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	p.OnboardingCompleted = onboarding != 0
	return &p, nil
}

func (s *SQLite) UpdateProfile(ctx context.Context, patch models.ProfilePatch) error {
	profile, err := s.GetProfile(ctx)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &models.UserProfile{}
	}
	profile.Apply(patch)

	onboarding := 0
	if profile.OnboardingCompleted {
		onboarding = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_profile (id, name, height, initial_weight, height_unit, weight_unit, onboarding_completed)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   height = excluded.height,
		   initial_weight = excluded.initial_weight,
		   height_unit = excluded.height_unit,
		   weight_unit = excluded.weight_unit,
		   onboarding_completed = excluded.onboarding_completed`,
		profile.Name, profile.Height, profile.InitialWeight,
		profile.HeightUnit, profile.WeightUnit, onboarding)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

func (s *SQLite) ListReminders(ctx context.Context) ([]models.ScheduledReminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, variant, created_at, completed FROM scheduled_reminders`)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer rows.Close()

	result := []models.ScheduledReminder{}
	for rows.Next() {
		var r models.ScheduledReminder
		var completed int
		if err := rows.Scan(&r.ID, &r.Date, &r.Variant, &r.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("scanning reminder: %w", err)
		}
		r.Completed = completed != 0
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *SQLite) AddReminder(ctx context.Context, date string, variant models.Variant) (*models.ScheduledReminder, error) {
	var existing models.ScheduledReminder
	err := s.db.QueryRowContext(ctx,
		`SELECT id, date, variant, created_at FROM scheduled_reminders
		 WHERE date = ? AND variant = ? AND completed = 0`, date, variant).
		Scan(&existing.ID, &existing.Date, &existing.Variant, &existing.CreatedAt)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying reminder: %w", err)
	}

	reminder := models.ScheduledReminder{
		ID:        models.NewReminderID(),
		Date:      date,
		Variant:   variant,
		CreatedAt: models.NowMillis(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scheduled_reminders (id, date, variant, created_at, completed)
		 VALUES (?, ?, ?, ?, 0)`,
		reminder.ID, reminder.Date, reminder.Variant, reminder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting reminder: %w", err)
	}
	return &reminder, nil
}

func (s *SQLite) CompleteReminder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_reminders SET completed = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("completing reminder: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteReminder(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}
	return nil
}

func (s *SQLite) GetAppData(ctx context.Context) (*models.AppData, error) {
	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	measurements, err := s.ListMeasurements(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	reminders, err := s.ListReminders(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AppData{
		Sessions:           sessions,
		Measurements:       measurements,
		Settings:           settings,
		UserProfile:        profile,
		ScheduledReminders: reminders,
	}, nil
}

// ReplaceAppData swaps in the whole aggregate in one transaction: the three
// collections are deleted and reinserted, the settings row is replaced, and
// the profile row is replaced when the payload carries one. Any failure
// rolls the whole thing back.
func (s *SQLite) ReplaceAppData(ctx context.Context, data *models.AppData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sessions", "measurements", "scheduled_reminders"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, sess := range data.Sessions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, date, variant, exercises, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.Date, sess.Variant, encodeJSON(sess.Exercises),
			sess.CreatedAt, sess.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
	}

	for _, m := range data.Measurements {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO measurements (id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Date, m.Weight, m.BodyFat, encodeJSON(m.Measurements),
			m.MeasurementUnit, m.WeightUnit, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting measurement: %w", err)
		}
	}

	settings := data.Settings
	settings.Normalize()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (id, unit, notifications, measurement_notifications, theme)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   unit = excluded.unit,
		   notifications = excluded.notifications,
		   measurement_notifications = excluded.measurement_notifications,
		   theme = excluded.theme`,
		settings.Unit, encodeJSON(settings.Notifications),
		encodeJSON(settings.MeasurementNotifications), settings.Theme)
	if err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}

	if data.UserProfile != nil {
		onboarding := 0
		if data.UserProfile.OnboardingCompleted {
			onboarding = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_profile (id, name, height, initial_weight, height_unit, weight_unit, onboarding_completed)
			 VALUES (1, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   name = excluded.name,
			   height = excluded.height,
			   initial_weight = excluded.initial_weight,
			   height_unit = excluded.height_unit,
			   weight_unit = excluded.weight_unit,
			   onboarding_completed = excluded.onboarding_completed`,
			data.UserProfile.Name, data.UserProfile.Height, data.UserProfile.InitialWeight,
			data.UserProfile.HeightUnit, data.UserProfile.WeightUnit, onboarding)
		if err != nil {
			return fmt.Errorf("replacing profile: %w", err)
		}
	}

	for _, r := range data.ScheduledReminders {
		completed := 0
		if r.Completed {
			completed = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO scheduled_reminders (id, date, variant, created_at, completed)
			 VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Date, r.Variant, r.CreatedAt, completed)
		if err != nil {
			return fmt.Errorf("inserting reminder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}
	return nil
}

// Reset empties the collections, drops the profile, and restores the
// settings row to the documented defaults.
func (s *SQLite) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sessions", "measurements", "scheduled_reminders", "user_profile"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	def := models.DefaultSettings()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (id, unit, notifications, measurement_notifications, theme)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   unit = excluded.unit,
		   notifications = excluded.notifications,
		   measurement_notifications = excluded.measurement_notifications,
		   theme = excluded.theme`,
		def.Unit, encodeJSON(def.Notifications),
		encodeJSON(def.MeasurementNotifications), def.Theme)
	if err != nil {
		return fmt.Errorf("resetting settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}
