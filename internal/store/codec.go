package store

import (
	"encoding/json"

	"github.com/claude/occam/internal/models"
)

// Rows carry nested sub-structures as JSON text columns. These helpers keep
// the encode/parse-with-fallback behavior in one place so both drivers
// agree on the wire format.

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeExercises(s string) []models.Exercise {
	var out []models.Exercise
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []models.Exercise{}
	}
	return out
}

func decodeBodyMeasurements(s string) models.BodyMeasurements {
	var out models.BodyMeasurements
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func decodeNotifications(s string) models.NotificationSettings {
	var out models.NotificationSettings
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func decodeMeasurementNotifications(s string) models.MeasurementNotificationSettings {
	var out models.MeasurementNotificationSettings
	_ = json.Unmarshal([]byte(s), &out)
	return out
}
