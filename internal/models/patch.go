package models

// SessionPatch is a partial update to a TrainingSession. Nil fields keep
// their prior values.
type SessionPatch struct {
	Date      *string    `json:"date,omitempty"`
	Variant   *Variant   `json:"variant,omitempty"`
	Exercises []Exercise `json:"exercises,omitempty"`
}

// Apply merges the patch into the session and stamps UpdatedAt.
func (s *TrainingSession) Apply(p SessionPatch, now int64) {
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.Variant != nil {
		s.Variant = *p.Variant
	}
	if p.Exercises != nil {
		s.Exercises = p.Exercises
	}
	s.UpdatedAt = now
}

// MeasurementPatch is a partial update to a Measurement.
type MeasurementPatch struct {
	Date            *string           `json:"date,omitempty"`
	Weight          *float64          `json:"weight,omitempty"`
	BodyFat         *float64          `json:"bodyFat,omitempty"`
	Measurements    *BodyMeasurements `json:"measurements,omitempty"`
	MeasurementUnit *string           `json:"measurementUnit,omitempty"`
	WeightUnit      *string           `json:"weightUnit,omitempty"`
}

// Apply merges the patch into the measurement and stamps UpdatedAt.
func (m *Measurement) Apply(p MeasurementPatch, now int64) {
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.Weight != nil {
		m.Weight = *p.Weight
	}
	if p.BodyFat != nil {
		m.BodyFat = *p.BodyFat
	}
	if p.Measurements != nil {
		m.Measurements = *p.Measurements
	}
	if p.MeasurementUnit != nil {
		m.MeasurementUnit = *p.MeasurementUnit
	}
	if p.WeightUnit != nil {
		m.WeightUnit = *p.WeightUnit
	}
	m.UpdatedAt = now
}

// SettingsPatch is a partial update to AppSettings. The two notification
// sub-records merge at their own top level: a present sub-record replaces
// the stored one wholesale.
type SettingsPatch struct {
	Unit                     *string                          `json:"unit,omitempty"`
	Notifications            *NotificationSettings            `json:"notifications,omitempty"`
	MeasurementNotifications *MeasurementNotificationSettings `json:"measurementNotifications,omitempty"`
	Theme                    *string                          `json:"theme,omitempty"`
}

// Apply merges the patch into the settings.
func (s *AppSettings) Apply(p SettingsPatch) {
	if p.Unit != nil {
		s.Unit = *p.Unit
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	if p.MeasurementNotifications != nil {
		s.MeasurementNotifications = *p.MeasurementNotifications
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
}

// ProfilePatch is a partial update to a UserProfile. The profile is created
// on first write if absent, so Apply works on a zero-valued receiver too.
type ProfilePatch struct {
	Name                *string  `json:"name,omitempty"`
	Height              *float64 `json:"height,omitempty"`
	InitialWeight       *float64 `json:"initialWeight,omitempty"`
	HeightUnit          *string  `json:"heightUnit,omitempty"`
	WeightUnit          *string  `json:"weightUnit,omitempty"`
	OnboardingCompleted *bool    `json:"onboardingCompleted,omitempty"`
}

// Apply merges the patch into the profile.
func (u *UserProfile) Apply(p ProfilePatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Height != nil {
		u.Height = *p.Height
	}
	if p.InitialWeight != nil {
		u.InitialWeight = *p.InitialWeight
	}
	if p.HeightUnit != nil {
		u.HeightUnit = *p.HeightUnit
	}
	if p.WeightUnit != nil {
		u.WeightUnit = *p.WeightUnit
	}
	if p.OnboardingCompleted != nil {
		u.OnboardingCompleted = *p.OnboardingCompleted
	}
}
