// Package store is the server-side relational store behind the REST API:
// five tables mirroring the domain aggregate, with nested sub-structures
// persisted as JSON text columns. Two drivers implement the same Store
// interface — embedded SQLite (the default) and PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/claude/occam/internal/config"
	"github.com/claude/occam/internal/models"
)

// ErrNotFound reports an update against an id that does not exist.
// Deletes are idempotent and never return it.
var ErrNotFound = errors.New("record not found")

// Store is the relational persistence contract behind the REST handlers.
type Store interface {
	// Whole-aggregate access. ReplaceAppData runs in a single transaction:
	// either the full new state lands or nothing changes.
	GetAppData(ctx context.Context) (*models.AppData, error)
	ReplaceAppData(ctx context.Context, data *models.AppData) error
	Reset(ctx context.Context) error

	ListSessions(ctx context.Context) ([]models.TrainingSession, error)
	InsertSession(ctx context.Context, session models.TrainingSession) error
	UpdateSession(ctx context.Context, id string, patch models.SessionPatch) error
	DeleteSession(ctx context.Context, id string) error

	ListMeasurements(ctx context.Context) ([]models.Measurement, error)
	InsertMeasurement(ctx context.Context, measurement models.Measurement) error
	UpdateMeasurement(ctx context.Context, id string, patch models.MeasurementPatch) error
	DeleteMeasurement(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (models.AppSettings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) error

	GetProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) error

	ListReminders(ctx context.Context) ([]models.ScheduledReminder, error)
	AddReminder(ctx context.Context, date string, variant models.Variant) (*models.ScheduledReminder, error)
	CompleteReminder(ctx context.Context, id string) error
	DeleteReminder(ctx context.Context, id string) error

	Close() error
}

// Compile-time checks: both drivers satisfy Store.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)

// Open constructs the configured Store implementation.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN())
	case "sqlite", "":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(cfg config.DatabaseConfig, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
