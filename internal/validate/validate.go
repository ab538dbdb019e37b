// Package validate checks and coerces user-entered strings into bounded
// numeric domain values. All functions are pure; failures are reported as
// field-keyed messages, never as errors.
package validate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/claude/occam/internal/models"
)

// Result is the outcome of a validation: either Valid with the coerced
// Value, or invalid with a user-facing Err message.
type Result struct {
	Valid bool
	Value float64
	Err   string
}

func invalid(msg string) Result {
	return Result{Err: msg}
}

func parseNumber(s, field string) (float64, Result) {
	if s == "" {
		return 0, invalid(field + " is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalid(field + " must be a number")
	}
	return v, Result{Valid: true, Value: v}
}

// Weight validates a body or exercise weight. Any unit; plausible ceiling 1000.
func Weight(s string) Result {
	v, res := parseNumber(s, "Weight")
	if !res.Valid {
		return res
	}
	if v < 0 {
		return invalid("Weight must be positive")
	}
	if v > 1000 {
		return invalid("Weight seems too high")
	}
	return res
}

// Height validates a height in the given unit ("cm" or "inches").
// Plausible range: 100-250 cm or 39-98 inches.
func Height(s, unit string) Result {
	v, res := parseNumber(s, "Height")
	if !res.Valid {
		return res
	}
	if v < 0 {
		return invalid("Height must be positive")
	}
	min, max := 100.0, 250.0
	if unit == "inches" {
		min, max = 39, 98
	}
	if v < min || v > max {
		return invalid(fmt.Sprintf("Height must be between %g and %g %s", min, max, unit))
	}
	return res
}

// BodyFat validates a body-fat percentage (0-100).
func BodyFat(s string) Result {
	v, res := parseNumber(s, "Body fat percentage")
	if !res.Valid {
		return res
	}
	if v < 0 || v > 100 {
		return invalid("Body fat must be between 0 and 100%")
	}
	return res
}

// Measurement validates a single body measurement field in the given unit.
// Plausible range: 10-200 cm or 4-79 inches.
func Measurement(s, unit, field string) Result {
	v, res := parseNumber(s, field)
	if !res.Valid {
		return res
	}
	if v < 0 {
		return invalid(field + " must be positive")
	}
	min, max := 10.0, 200.0
	if unit == "inches" {
		min, max = 4, 79
	}
	if v < min || v > max {
		return invalid(fmt.Sprintf("%s must be between %g and %g %s", field, min, max, unit))
	}
	return res
}

// Date validates a YYYY-MM-DD calendar date string.
func Date(s string) Result {
	if s == "" {
		return invalid("Date is required")
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return invalid("Invalid date format")
	}
	return Result{Valid: true}
}

// VariantName validates a workout variant name ("A" or "B").
func VariantName(s string) Result {
	if !models.Variant(s).Valid() {
		return invalid("Invalid variant")
	}
	return Result{Valid: true}
}
