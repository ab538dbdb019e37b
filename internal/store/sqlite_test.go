package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/claude/occam/internal/config"
	"github.com/claude/occam/internal/models"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	if err := RunMigrations(cfg, "../../migrations"); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	s, err := OpenSQLite(cfg.Path)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id string) models.TrainingSession {
	return models.TrainingSession{
		ID:      id,
		Date:    "2024-01-15",
		Variant: models.VariantA,
		Exercises: []models.Exercise{
			{Name: "Lat Pulldown", Weight: 50, Unit: "kg"},
			{Name: "Shoulder Press", Weight: 30, Unit: "kg"},
		},
		CreatedAt: 1700000000000,
		UpdatedAt: 1700000000000,
	}
}

// TestSessionCRUD walks a session through insert, list, update, and delete.
func TestSessionCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertSession(ctx, testSession("s1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].ID != "s1" || sessions[0].Variant != models.VariantA {
		t.Errorf("session = %+v, want id s1 variant A", sessions[0])
	}
	if len(sessions[0].Exercises) != 2 {
		t.Errorf("got %d exercises, want 2", len(sessions[0].Exercises))
	}

	newDate := "2024-01-16"
	if err := s.UpdateSession(ctx, "s1", models.SessionPatch{Date: &newDate}); err != nil {
		t.Fatalf("update: %v", err)
	}
	sessions, _ = s.ListSessions(ctx)
	if sessions[0].Date != "2024-01-16" {
		t.Errorf("date = %q, want 2024-01-16", sessions[0].Date)
	}
	if sessions[0].Variant != models.VariantA {
		t.Errorf("variant changed by a date-only patch: %q", sessions[0].Variant)
	}
	if sessions[0].UpdatedAt <= 1700000000000 {
		t.Error("updatedAt was not advanced")
	}

	if err := s.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sessions, _ = s.ListSessions(ctx)
	if len(sessions) != 0 {
		t.Errorf("got %d sessions after delete, want 0", len(sessions))
	}
}

// TestUpdateSessionMissing verifies updates against unknown ids fail with
// ErrNotFound and writes nothing.
func TestUpdateSessionMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	date := "2024-01-01"
	err := s.UpdateSession(ctx, "nope", models.SessionPatch{Date: &date})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestDeleteIdempotent verifies deleting a missing record succeeds.
func TestDeleteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.DeleteSession(ctx, "ghost"); err != nil {
		t.Errorf("delete missing session: %v", err)
	}
	if err := s.DeleteMeasurement(ctx, "ghost"); err != nil {
		t.Errorf("delete missing measurement: %v", err)
	}
	if err := s.DeleteReminder(ctx, "ghost"); err != nil {
		t.Errorf("delete missing reminder: %v", err)
	}
}

// TestMeasurementRoundTrip verifies nested body measurements survive the
// JSON column encoding.
func TestMeasurementRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := models.Measurement{
		ID:     "m1",
		Date:   "2024-02-01",
		Weight: 82.5,
		Measurements: models.BodyMeasurements{
			Waist: 85, LeftArm: 34.5, RightArm: 35,
		},
		MeasurementUnit: "cm",
		WeightUnit:      "kg",
		CreatedAt:       1700000000000,
		UpdatedAt:       1700000000000,
	}
	if err := s.InsertMeasurement(ctx, m); err != nil {
		t.Fatalf("insert: %v", err)
	}

	list, err := s.ListMeasurements(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d measurements, want 1", len(list))
	}
	if list[0].Measurements.Waist != 85 {
		t.Errorf("waist = %v, want 85", list[0].Measurements.Waist)
	}
	if list[0].Weight != 82.5 {
		t.Errorf("weight = %v, want 82.5", list[0].Weight)
	}

	weight := 83.0
	if err := s.UpdateMeasurement(ctx, "m1", models.MeasurementPatch{Weight: &weight}); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ = s.ListMeasurements(ctx)
	if list[0].Weight != 83.0 {
		t.Errorf("weight = %v, want 83", list[0].Weight)
	}
	if list[0].Measurements.Waist != 85 {
		t.Error("body measurements lost by a weight-only patch")
	}
}

// TestSettingsSeededAndMerged verifies the migration seeds the defaults and
// partial updates leave unspecified fields alone.
func TestSettingsSeededAndMerged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	settings, err := s.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if settings.Unit != "kg" {
		t.Errorf("unit = %q, want kg", settings.Unit)
	}
	if settings.Theme != "light" {
		t.Errorf("theme = %q, want light", settings.Theme)
	}
	if len(settings.Notifications.Days) != 3 {
		t.Errorf("notification days = %v, want three defaults", settings.Notifications.Days)
	}

	theme := "dark"
	if err := s.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme}); err != nil {
		t.Fatalf("update: %v", err)
	}
	settings, _ = s.GetSettings(ctx)
	if settings.Theme != "dark" {
		t.Errorf("theme = %q, want dark", settings.Theme)
	}
	if settings.Unit != "kg" {
		t.Errorf("unit = %q after theme patch, want kg unchanged", settings.Unit)
	}
	if settings.Notifications.Time != "18:00" {
		t.Errorf("notifications.time = %q, want 18:00 unchanged", settings.Notifications.Time)
	}
}

// TestProfileCreatedOnFirstUpdate verifies the profile row is absent until
// written, then upserted.
func TestProfileCreatedOnFirstUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile, err := s.GetProfile(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile != nil {
		t.Fatalf("profile = %+v before onboarding, want nil", profile)
	}

	name := "Ada"
	height := 170.0
	weight := 65.0
	done := true
	err = s.UpdateProfile(ctx, models.ProfilePatch{
		Name: &name, Height: &height, InitialWeight: &weight, OnboardingCompleted: &done,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	profile, _ = s.GetProfile(ctx)
	if profile == nil {
		t.Fatal("profile still nil after update")
	}
	if profile.Name != "Ada" || !profile.OnboardingCompleted {
		t.Errorf("profile = %+v", profile)
	}

	newName := "Ada L."
	if err := s.UpdateProfile(ctx, models.ProfilePatch{Name: &newName}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	profile, _ = s.GetProfile(ctx)
	if profile.Name != "Ada L." {
		t.Errorf("name = %q, want Ada L.", profile.Name)
	}
	if profile.Height != 170 {
		t.Errorf("height = %v after name-only patch, want 170 unchanged", profile.Height)
	}
}

// TestAddReminderDedupes verifies at most one active reminder exists per
// date/variant pair, and completed ones do not block new reminders.
func TestAddReminderDedupes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddReminder(ctx, "2024-03-01", models.VariantB)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := s.AddReminder(ctx, "2024-03-01", models.VariantB)
	if err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("duplicate add returned id %q, want existing %q", second.ID, first.ID)
	}

	reminders, _ := s.ListReminders(ctx)
	if len(reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(reminders))
	}

	// A different variant on the same date is its own reminder.
	other, err := s.AddReminder(ctx, "2024-03-01", models.VariantA)
	if err != nil {
		t.Fatalf("add other variant: %v", err)
	}
	if other.ID == first.ID {
		t.Error("variant A reminder deduplicated against variant B")
	}

	// Completing frees the slot for a fresh reminder.
	if err := s.CompleteReminder(ctx, first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	third, err := s.AddReminder(ctx, "2024-03-01", models.VariantB)
	if err != nil {
		t.Fatalf("add after complete: %v", err)
	}
	if third.ID == first.ID {
		t.Error("completed reminder blocked a new one")
	}
}

// TestReplaceAppData verifies the transactional full replace, including the
// null-profile case which keeps the existing profile row.
func TestReplaceAppData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	name := "Ada"
	if err := s.UpdateProfile(ctx, models.ProfilePatch{Name: &name}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if err := s.InsertSession(ctx, testSession("old")); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	incoming := models.DefaultAppData()
	incoming.Sessions = []models.TrainingSession{testSession("new1"), func() models.TrainingSession {
		sess := testSession("new2")
		sess.Date = "2024-01-20"
		return sess
	}()}
	incoming.Settings.Theme = "dark"

	if err := s.ReplaceAppData(ctx, &incoming); err != nil {
		t.Fatalf("replace: %v", err)
	}

	data, err := s.GetAppData(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(data.Sessions) != 2 {
		t.Errorf("got %d sessions, want 2", len(data.Sessions))
	}
	for _, sess := range data.Sessions {
		if sess.ID == "old" {
			t.Error("stale session survived the replace")
		}
	}
	if data.Settings.Theme != "dark" {
		t.Errorf("theme = %q, want dark", data.Settings.Theme)
	}
	// A payload with no profile leaves the stored row alone.
	if data.UserProfile == nil || data.UserProfile.Name != "Ada" {
		t.Errorf("profile = %+v, want existing Ada row preserved", data.UserProfile)
	}
}

// TestReset verifies reset empties everything and restores default settings.
func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertSession(ctx, testSession("s1")); err != nil {
		t.Fatal(err)
	}
	name := "Ada"
	if err := s.UpdateProfile(ctx, models.ProfilePatch{Name: &name}); err != nil {
		t.Fatal(err)
	}
	theme := "dark"
	if err := s.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme}); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	data, err := s.GetAppData(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(data.Sessions) != 0 || len(data.Measurements) != 0 || len(data.ScheduledReminders) != 0 {
		t.Error("collections not emptied by reset")
	}
	if data.UserProfile != nil {
		t.Errorf("profile = %+v after reset, want nil", data.UserProfile)
	}
	if data.Settings.Theme != "light" || data.Settings.Unit != "kg" {
		t.Errorf("settings = %+v, want defaults", data.Settings)
	}
}

// TestMigrationsIdempotent verifies running migrations twice is harmless.
func TestMigrationsIdempotent(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	if err := RunMigrations(cfg, "../../migrations"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(cfg, "../../migrations"); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
