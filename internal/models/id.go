package models

import "github.com/google/uuid"

// NewID returns a fresh opaque entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NewReminderID returns a fresh reminder identifier. The prefix keeps
// reminder ids recognizable in exports and logs.
func NewReminderID() string {
	return "reminder-" + uuid.NewString()
}
