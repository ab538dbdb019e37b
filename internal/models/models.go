package models

import "time"

// Variant selects one of the two fixed workout templates.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// Valid reports whether v is one of the two known variants.
func (v Variant) Valid() bool {
	return v == VariantA || v == VariantB
}

// Exercises is the fixed catalog of exercise names per workout variant.
var Exercises = map[Variant][]string{
	VariantA: {"Lat Pulldown", "Shoulder Press", "Abdominal Exercises"},
	VariantB: {"Chest Press", "Leg Press", "Kettlebells swinging"},
}

// RepCountedExercise is the one catalog entry tracked with a rep count
// instead of a plain weight progression.
const RepCountedExercise = "Kettlebells swinging"

// Exercise is one entry in a training session.
type Exercise struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit"` // "kg" or "lbs"
	Reps   *int    `json:"reps,omitempty"`
}

// TrainingSession is one logged workout. Dates are YYYY-MM-DD strings,
// timestamps are epoch milliseconds.
type TrainingSession struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Variant   Variant    `json:"variant"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
}

// BodyMeasurements holds the seven tracked circumference/width fields.
// Fields the user skipped are zero.
type BodyMeasurements struct {
	LeftArm    float64 `json:"leftArm"`
	RightArm   float64 `json:"rightArm"`
	LeftLeg    float64 `json:"leftLeg"`
	RightLeg   float64 `json:"rightLeg"`
	Waist      float64 `json:"waist"`
	Hip        float64 `json:"hip"`
	ChestWidth float64 `json:"chestWidth"`
}

// Measurement is one logged body measurement entry.
type Measurement struct {
	ID              string           `json:"id"`
	Date            string           `json:"date"`
	Weight          float64          `json:"weight"`
	BodyFat         float64          `json:"bodyFat"`
	Measurements    BodyMeasurements `json:"measurements"`
	MeasurementUnit string           `json:"measurementUnit"` // "cm" or "inches"
	WeightUnit      string           `json:"weightUnit"`      // "kg" or "lbs"
	CreatedAt       int64            `json:"createdAt"`
	UpdatedAt       int64            `json:"updatedAt"`
}

// NotificationSettings configures training-day reminders.
type NotificationSettings struct {
	Enabled bool     `json:"enabled"`
	Days    []string `json:"days"` // lowercase weekday names
	Time    string   `json:"time"` // HH:MM
}

// MeasurementNotificationSettings configures the weekly measurement reminder.
type MeasurementNotificationSettings struct {
	Enabled bool   `json:"enabled"`
	Day     string `json:"day"`
	Time    string `json:"time"`
}

// AppSettings is the singleton settings record.
type AppSettings struct {
	Unit                     string                          `json:"unit"` // preferred weight unit
	Notifications            NotificationSettings            `json:"notifications"`
	MeasurementNotifications MeasurementNotificationSettings `json:"measurementNotifications"`
	Theme                    string                          `json:"theme"` // "light" or "dark"
}

// UserProfile is the singleton profile record, absent until onboarding.
// Height is always stored in cm and InitialWeight in kg; the *Unit fields
// only record what the user originally typed.
type UserProfile struct {
	Name                string  `json:"name"`
	Height              float64 `json:"height"`
	InitialWeight       float64 `json:"initialWeight"`
	HeightUnit          string  `json:"heightUnit"`
	WeightUnit          string  `json:"weightUnit"`
	OnboardingCompleted bool    `json:"onboardingCompleted"`
}

// ScheduledReminder is a planned workout occurrence. At most one active
// (non-completed) reminder may exist per (date, variant) pair.
type ScheduledReminder struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Variant   Variant `json:"variant"`
	CreatedAt int64   `json:"createdAt"`
	Completed bool    `json:"completed"`
}

// AppData is the aggregate root: the full persisted state for one user.
type AppData struct {
	Sessions           []TrainingSession   `json:"sessions"`
	Measurements       []Measurement       `json:"measurements"`
	Settings           AppSettings         `json:"settings"`
	UserProfile        *UserProfile        `json:"userProfile"`
	ScheduledReminders []ScheduledReminder `json:"scheduledReminders"`
}

// DefaultSettings returns the documented settings defaults.
func DefaultSettings() AppSettings {
	return AppSettings{
		Unit: "kg",
		Notifications: NotificationSettings{
			Enabled: false,
			Days:    []string{"monday", "wednesday", "friday"},
			Time:    "18:00",
		},
		MeasurementNotifications: MeasurementNotificationSettings{
			Enabled: false,
			Day:     "monday",
			Time:    "18:00",
		},
		Theme: "light",
	}
}

// DefaultAppData returns an empty aggregate with default settings.
func DefaultAppData() AppData {
	return AppData{
		Sessions:           []TrainingSession{},
		Measurements:       []Measurement{},
		Settings:           DefaultSettings(),
		ScheduledReminders: []ScheduledReminder{},
	}
}

// Normalize back-fills missing collections and settings fields so aggregates
// read from older stores or partial imports always have the full shape.
// Settings sub-records written before the measurement-notification feature
// existed are synthesized with their defaults.
func (d *AppData) Normalize() {
	if d.Sessions == nil {
		d.Sessions = []TrainingSession{}
	}
	if d.Measurements == nil {
		d.Measurements = []Measurement{}
	}
	if d.ScheduledReminders == nil {
		d.ScheduledReminders = []ScheduledReminder{}
	}
	d.Settings.Normalize()
}

// Normalize back-fills zero-valued settings fields with their defaults.
// A stored sub-record always carries a non-empty time, so an empty time
// means the field was absent from the serialized form.
func (s *AppSettings) Normalize() {
	def := DefaultSettings()
	if s.Unit == "" {
		s.Unit = def.Unit
	}
	if s.Theme == "" {
		s.Theme = def.Theme
	}
	if s.Notifications.Time == "" {
		s.Notifications = def.Notifications
	}
	if s.MeasurementNotifications.Time == "" {
		s.MeasurementNotifications = def.MeasurementNotifications
	}
}

// NowMillis returns the current time in epoch milliseconds, the timestamp
// unit used throughout the aggregate.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
