package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/occam/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := OpenLocal(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("opening local store: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// TestLocalAddSessionGeneratesIdentity verifies an id-less session gets a
// generated id and matching created/updated timestamps.
func TestLocalAddSessionGeneratesIdentity(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	ok := l.AddSession(ctx, models.TrainingSession{
		Date:    "2024-01-15",
		Variant: models.VariantA,
		Exercises: []models.Exercise{
			{Name: "Lat Pulldown", Weight: 40, Unit: "kg"},
		},
	})
	if !ok {
		t.Fatal("AddSession = false")
	}

	sessions := l.GetSessions(ctx)
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	got := sessions[0]
	if got.ID == "" {
		t.Error("id was not generated")
	}
	if got.CreatedAt == 0 || got.CreatedAt != got.UpdatedAt {
		t.Errorf("timestamps = %d/%d, want equal and non-zero", got.CreatedAt, got.UpdatedAt)
	}
	if got.Date != "2024-01-15" || got.Variant != models.VariantA {
		t.Errorf("session = %+v", got)
	}
	if len(got.Exercises) != 1 || got.Exercises[0].Weight != 40 {
		t.Errorf("exercises = %+v", got.Exercises)
	}
}

// TestLocalUpdateMissingFails verifies updates against unknown ids return
// false and change nothing.
func TestLocalUpdateMissingFails(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	date := "2024-01-16"
	if l.UpdateSession(ctx, "nope", models.SessionPatch{Date: &date}) {
		t.Error("UpdateSession on missing id = true, want false")
	}
	weight := 80.0
	if l.UpdateMeasurement(ctx, "nope", models.MeasurementPatch{Weight: &weight}) {
		t.Error("UpdateMeasurement on missing id = true, want false")
	}
	if l.MarkReminderCompleted(ctx, "nope") {
		t.Error("MarkReminderCompleted on missing id = true, want false")
	}
}

// TestLocalDeleteIdempotent verifies deleting missing records still
// succeeds.
func TestLocalDeleteIdempotent(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	if !l.DeleteSession(ctx, "ghost") {
		t.Error("DeleteSession on missing id = false, want true")
	}
	if !l.DeleteMeasurement(ctx, "ghost") {
		t.Error("DeleteMeasurement on missing id = false, want true")
	}
	if !l.DeleteScheduledReminder(ctx, "ghost") {
		t.Error("DeleteScheduledReminder on missing id = false, want true")
	}
}

// TestLocalSettingsMerge verifies partial updates preserve unspecified
// fields.
func TestLocalSettingsMerge(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	theme := "dark"
	if !l.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme}) {
		t.Fatal("UpdateSettings = false")
	}

	settings := l.GetSettings(ctx)
	if settings.Theme != "dark" {
		t.Errorf("theme = %q, want dark", settings.Theme)
	}
	if settings.Unit != "kg" {
		t.Errorf("unit = %q after theme-only patch, want kg", settings.Unit)
	}
	if settings.Notifications.Time != "18:00" {
		t.Errorf("notifications.time = %q, want unchanged 18:00", settings.Notifications.Time)
	}

	// Replacing one notification sub-record leaves the other alone.
	notif := models.NotificationSettings{Enabled: true, Days: []string{"tuesday"}, Time: "07:30"}
	if !l.UpdateSettings(ctx, models.SettingsPatch{Notifications: &notif}) {
		t.Fatal("UpdateSettings = false")
	}
	settings = l.GetSettings(ctx)
	if !settings.Notifications.Enabled || settings.Notifications.Time != "07:30" {
		t.Errorf("notifications = %+v", settings.Notifications)
	}
	if settings.MeasurementNotifications.Day != "monday" {
		t.Errorf("measurementNotifications.day = %q, want unchanged monday",
			settings.MeasurementNotifications.Day)
	}
}

// TestLocalProfileOnboarding verifies the profile lifecycle: absent, then
// created on first write, then marked onboarded.
func TestLocalProfileOnboarding(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	if l.GetUserProfile(ctx) != nil {
		t.Fatal("profile present before onboarding")
	}
	if l.IsOnboardingCompleted(ctx) {
		t.Error("onboarding completed before any profile write")
	}

	name := "Ada"
	height := 170.0
	if !l.UpdateUserProfile(ctx, models.ProfilePatch{Name: &name, Height: &height}) {
		t.Fatal("UpdateUserProfile = false")
	}
	if l.IsOnboardingCompleted(ctx) {
		t.Error("onboarding completed without CompleteOnboarding")
	}

	if !l.CompleteOnboarding(ctx) {
		t.Fatal("CompleteOnboarding = false")
	}
	profile := l.GetUserProfile(ctx)
	if profile == nil || !profile.OnboardingCompleted {
		t.Errorf("profile = %+v", profile)
	}
	if profile.Name != "Ada" || profile.Height != 170 {
		t.Errorf("profile fields lost: %+v", profile)
	}
}

// TestLocalReminderDedupe verifies at most one active reminder per
// date/variant and that completing frees the slot.
func TestLocalReminderDedupe(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	first := l.AddScheduledReminder(ctx, "2024-03-01", models.VariantB)
	if first == nil {
		t.Fatal("AddScheduledReminder = nil")
	}
	second := l.AddScheduledReminder(ctx, "2024-03-01", models.VariantB)
	if second == nil || second.ID != first.ID {
		t.Errorf("duplicate add returned %+v, want existing %q", second, first.ID)
	}
	if got := len(l.GetScheduledReminders(ctx)); got != 1 {
		t.Fatalf("got %d reminders, want 1", got)
	}

	if !l.MarkReminderCompleted(ctx, first.ID) {
		t.Fatal("MarkReminderCompleted = false")
	}
	third := l.AddScheduledReminder(ctx, "2024-03-01", models.VariantB)
	if third == nil || third.ID == first.ID {
		t.Error("completed reminder blocked a new one")
	}
}

// TestLocalExportImportRoundTrip verifies an exported blob imports back to
// the same state.
func TestLocalExportImportRoundTrip(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	l.AddSession(ctx, models.TrainingSession{Date: "2024-01-15", Variant: models.VariantA})
	theme := "dark"
	l.UpdateSettings(ctx, models.SettingsPatch{Theme: &theme})

	exported := l.ExportData(ctx)
	if !strings.Contains(exported, `"2024-01-15"`) {
		t.Errorf("export missing session date: %s", exported)
	}

	other := newLocal(t)
	if !other.ImportData(ctx, exported) {
		t.Fatal("ImportData = false")
	}
	if got := len(other.GetSessions(ctx)); got != 1 {
		t.Errorf("imported %d sessions, want 1", got)
	}
	if got := other.GetSettings(ctx).Theme; got != "dark" {
		t.Errorf("imported theme = %q, want dark", got)
	}
}

// TestImportRejectsBadPayloads verifies the import guard.
func TestImportRejectsBadPayloads(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "hello"},
		{"missing sessions", `{"settings":{}}`},
		{"missing settings", `{"sessions":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if l.ImportData(ctx, tc.payload) {
				t.Error("ImportData = true, want false")
			}
		})
	}
}

// TestLocalClearAllData verifies clearing restores documented defaults on
// the next read.
func TestLocalClearAllData(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	l.AddSession(ctx, models.TrainingSession{Date: "2024-01-15", Variant: models.VariantA})
	unit := "lbs"
	l.UpdateSettings(ctx, models.SettingsPatch{Unit: &unit})

	if !l.ClearAllData(ctx) {
		t.Fatal("ClearAllData = false")
	}

	if got := len(l.GetSessions(ctx)); got != 0 {
		t.Errorf("got %d sessions after clear, want 0", got)
	}
	settings := l.GetSettings(ctx)
	if settings.Unit != "kg" || settings.Theme != "light" {
		t.Errorf("settings = %+v, want defaults", settings)
	}
	if settings.Notifications.Enabled ||
		len(settings.Notifications.Days) != 3 ||
		settings.Notifications.Time != "18:00" {
		t.Errorf("notifications = %+v, want disabled mon/wed/fri 18:00", settings.Notifications)
	}
	if settings.MeasurementNotifications.Enabled ||
		settings.MeasurementNotifications.Day != "monday" ||
		settings.MeasurementNotifications.Time != "18:00" {
		t.Errorf("measurementNotifications = %+v, want disabled monday 18:00",
			settings.MeasurementNotifications)
	}
}

// TestLocalNormalizesOldBlobs verifies an aggregate written before the
// measurement-notification field existed reads back with the default
// sub-record synthesized.
func TestLocalNormalizesOldBlobs(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	old := `{
		"sessions": [],
		"measurements": [],
		"settings": {
			"unit": "lbs",
			"notifications": {"enabled": true, "days": ["tuesday"], "time": "09:00"},
			"theme": "dark"
		}
	}`
	if _, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO app_data (key, value) VALUES (?, ?)`, storageKey, old); err != nil {
		t.Fatal(err)
	}

	settings := l.GetSettings(ctx)
	if settings.Unit != "lbs" || !settings.Notifications.Enabled {
		t.Errorf("stored fields lost: %+v", settings)
	}
	if settings.MeasurementNotifications.Day != "monday" ||
		settings.MeasurementNotifications.Time != "18:00" {
		t.Errorf("measurementNotifications = %+v, want synthesized defaults",
			settings.MeasurementNotifications)
	}
	if l.GetStoredData(ctx).ScheduledReminders == nil {
		t.Error("reminders collection not back-filled")
	}
}
