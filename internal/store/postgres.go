package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claude/occam/internal/models"
)

// Postgres implements Store on a pgx connection pool for deployments that
// want a shared database instead of a local file.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) ListSessions(ctx context.Context) ([]models.TrainingSession, error) {
	rows, err := p.pool.Query(ctx,
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

func (p *Postgres) InsertSession(ctx context.Context, session models.TrainingSession) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sessions (id, date, variant, exercises, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.Date, session.Variant, encodeJSON(session.Exercises),
		session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (p *Postgres) getSession(ctx context.Context, id string) (*models.TrainingSession, error) {
	var sess models.TrainingSession
	var exercises string
	err := p.pool.QueryRow(ctx,
		`SELECT id, date, variant, exercises, created_at, updated_at
		 FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.Date, &sess.Variant, &exercises, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	sess.Exercises = decodeExercises(exercises)
	return &sess, nil
}

func (p *Postgres) UpdateSession(ctx context.Context, id string, patch models.SessionPatch) error {
	sess, err := p.getSession(ctx, id)
	if err != nil {
		return err
	}
	sess.Apply(patch, models.NowMillis())

	_, err = p.pool.Exec(ctx,
		`UPDATE sessions SET date = $1, variant = $2, exercises = $3, updated_at = $4 WHERE id = $5`,
		sess.Date, sess.Variant, encodeJSON(sess.Exercises), sess.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (p *Postgres) ListMeasurements(ctx context.Context) ([]models.Measurement, error) {
	rows, err := p.pool.Query(ctx,
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

func (p *Postgres) InsertMeasurement(ctx context.Context, m models.Measurement) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO measurements (id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Date, m.Weight, m.BodyFat, encodeJSON(m.Measurements),
		m.MeasurementUnit, m.WeightUnit, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	return nil
}

func (p *Postgres) getMeasurement(ctx context.Context, id string) (*models.Measurement, error) {
	var m models.Measurement
	var body string
	err := p.pool.QueryRow(ctx,
		`SELECT id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at
		 FROM measurements WHERE id = $1`, id).
		Scan(&m.ID, &m.Date, &m.Weight, &m.BodyFat, &body,
			&m.MeasurementUnit, &m.WeightUnit, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying measurement: %w", err)
	}
	m.Measurements = decodeBodyMeasurements(body)
	return &m, nil
}

func (p *Postgres) UpdateMeasurement(ctx context.Context, id string, patch models.MeasurementPatch) error {
	m, err := p.getMeasurement(ctx, id)
	if err != nil {
		return err
	}
	m.Apply(patch, models.NowMillis())

	_, err = p.pool.Exec(ctx,
		`UPDATE measurements SET date = $1, weight = $2, body_fat = $3, measurements = $4,
		 measurement_unit = $5, weight_unit = $6, updated_at = $7 WHERE id = $8`,
		m.Date, m.Weight, m.BodyFat, encodeJSON(m.Measurements),
		m.MeasurementUnit, m.WeightUnit, m.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("updating measurement: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteMeasurement(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM measurements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting measurement: %w", err)
	}
	return nil
}

func (p *Postgres) GetSettings(ctx context.Context) (models.AppSettings, error) {
	var settings models.AppSettings
	var notifications, measurementNotifications string
	err := p.pool.QueryRow(ctx,
		`SELECT unit, notifications, measurement_notifications, theme FROM settings WHERE id = 1`).
		Scan(&settings.Unit, &notifications, &measurementNotifications, &settings.Theme)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (p *Postgres) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	settings, err := p.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.Apply(patch)

	_, err = p.pool.Exec(ctx,
		`INSERT INTO settings (id, unit, notifications, measurement_notifications, theme)
		 VALUES (1, $1, $2, $3, $4)
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

func (p *Postgres) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var prof models.UserProfile
	var onboarding int
	err := p.pool.QueryRow(ctx,
		`SELECT name, height, initial_weight, height_unit, weight_unit, onboarding_completed
		 FROM user_profile WHERE id = 1`).
		Scan(&prof.Name, &prof.Height, &prof.InitialWeight, &prof.HeightUnit, &prof.WeightUnit, &onboarding)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	prof.OnboardingCompleted = onboarding != 0
	return &prof, nil
}

func (p *Postgres) UpdateProfile(ctx context.Context, patch models.ProfilePatch) error {
	profile, err := p.GetProfile(ctx)
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
	_, err = p.pool.Exec(ctx,
		`INSERT INTO user_profile (id, name, height, initial_weight, height_unit, weight_unit, onboarding_completed)
		 VALUES (1, $1, $2, $3, $4, $5, $6)
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

func (p *Postgres) ListReminders(ctx context.Context) ([]models.ScheduledReminder, error) {
	rows, err := p.pool.Query(ctx,
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

func (p *Postgres) AddReminder(ctx context.Context, date string, variant models.Variant) (*models.ScheduledReminder, error) {
	var existing models.ScheduledReminder
	err := p.pool.QueryRow(ctx,
		`SELECT id, date, variant, created_at FROM scheduled_reminders
		 WHERE date = $1 AND variant = $2 AND completed = 0`, date, variant).
		Scan(&existing.ID, &existing.Date, &existing.Variant, &existing.CreatedAt)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("querying reminder: %w", err)
	}

	reminder := models.ScheduledReminder{
		ID:        models.NewReminderID(),
		Date:      date,
		Variant:   variant,
		CreatedAt: models.NowMillis(),
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO scheduled_reminders (id, date, variant, created_at, completed)
		 VALUES ($1, $2, $3, $4, 0)`,
		reminder.ID, reminder.Date, reminder.Variant, reminder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting reminder: %w", err)
	}
	return &reminder, nil
}

func (p *Postgres) CompleteReminder(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx,
		`UPDATE scheduled_reminders SET completed = 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("completing reminder: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteReminder(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM scheduled_reminders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting reminder: %w", err)
	}
	return nil
}

func (p *Postgres) GetAppData(ctx context.Context) (*models.AppData, error) {
	sessions, err := p.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	measurements, err := p.ListMeasurements(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := p.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := p.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	reminders, err := p.ListReminders(ctx)
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

// ReplaceAppData mirrors the SQLite driver: one transaction, collections
// replaced wholesale, settings upserted, profile upserted only when present.
func (p *Postgres) ReplaceAppData(ctx context.Context, data *models.AppData) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning replace: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"sessions", "measurements", "scheduled_reminders"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, sess := range data.Sessions {
		_, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, date, variant, exercises, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			sess.ID, sess.Date, sess.Variant, encodeJSON(sess.Exercises),
			sess.CreatedAt, sess.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
	}

	for _, m := range data.Measurements {
		_, err := tx.Exec(ctx,
			`INSERT INTO measurements (id, date, weight, body_fat, measurements, measurement_unit, weight_unit, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.ID, m.Date, m.Weight, m.BodyFat, encodeJSON(m.Measurements),
			m.MeasurementUnit, m.WeightUnit, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting measurement: %w", err)
		}
	}

	settings := data.Settings
	settings.Normalize()
	_, err = tx.Exec(ctx,
		`INSERT INTO settings (id, unit, notifications, measurement_notifications, theme)
		 VALUES (1, $1, $2, $3, $4)
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
		_, err = tx.Exec(ctx,
			`INSERT INTO user_profile (id, name, height, initial_weight, height_unit, weight_unit, onboarding_completed)
			 VALUES (1, $1, $2, $3, $4, $5, $6)
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
		_, err := tx.Exec(ctx,
			`INSERT INTO scheduled_reminders (id, date, variant, created_at, completed)
			 VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.Date, r.Variant, r.CreatedAt, completed)
		if err != nil {
			return fmt.Errorf("inserting reminder: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}
	return nil
}

// Reset clears everything and restores default settings.
func (p *Postgres) Reset(ctx context.Context) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning reset: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"sessions", "measurements", "scheduled_reminders", "user_profile"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	def := models.DefaultSettings()
	_, err = tx.Exec(ctx,
		`INSERT INTO settings (id, unit, notifications, measurement_notifications, theme)
		 VALUES (1, $1, $2, $3, $4)
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

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	return nil
}
