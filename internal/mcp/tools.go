package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/occam/internal/models"
)

// --- Tool definitions ---

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List logged training sessions, optionally filtered by date range and workout variant. Each session carries its exercise list with weights (and reps for the rep-counted exercise)."),
	mcp.WithString("start", mcp.Description("Earliest date to include (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Description("Latest date to include (YYYY-MM-DD)")),
	mcp.WithString("variant", mcp.Description("Filter by workout variant"), mcp.Enum("A", "B")),
)

var toolGetMeasurements = mcp.NewTool("get_measurements",
	mcp.WithDescription("List logged body measurements: weight, body fat, and the seven circumference fields. Optionally filtered by date range."),
	mcp.WithString("start", mcp.Description("Earliest date to include (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Description("Latest date to include (YYYY-MM-DD)")),
)

var toolGetSettings = mcp.NewTool("get_settings",
	mcp.WithDescription("Read the app settings: preferred weight unit, notification schedules, and theme."),
)

var toolGetProfile = mcp.NewTool("get_user_profile",
	mcp.WithDescription("Read the user profile (name, height, initial weight, onboarding state). Returns null before onboarding."),
)

var toolGetReminders = mcp.NewTool("get_reminders",
	mcp.WithDescription("List scheduled workout reminders with their completion state."),
	mcp.WithBoolean("active_only", mcp.Description("When true, only reminders not yet completed")),
)

var toolGetExerciseCatalog = mcp.NewTool("get_exercise_catalog",
	mcp.WithDescription("The fixed exercise catalog per workout variant, and which exercise is tracked by reps."),
)

var toolExportData = mcp.NewTool("export_data",
	mcp.WithDescription("Export the complete training data as an indented JSON document."),
)

// --- Tool handlers ---

// dateInRange filters YYYY-MM-DD strings, which order lexicographically.
func dateInRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := req.GetString("start", "")
	end := req.GetString("end", "")
	variant := req.GetString("variant", "")

	sessions := h.provider.GetSessions(ctx)
	filtered := []models.TrainingSession{}
	for _, s := range sessions {
		if !dateInRange(s.Date, start, end) {
			continue
		}
		if variant != "" && s.Variant != models.Variant(variant) {
			continue
		}
		filtered = append(filtered, s)
	}

	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getMeasurements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := req.GetString("start", "")
	end := req.GetString("end", "")

	measurements := h.provider.GetMeasurements(ctx)
	filtered := []models.Measurement{}
	for _, m := range measurements {
		if dateInRange(m.Date, start, end) {
			filtered = append(filtered, m)
		}
	}

	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.provider.GetSettings(ctx))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile := h.provider.GetUserProfile(ctx)
	if profile == nil {
		return mcp.NewToolResultText("null"), nil
	}
	result, err := mcp.NewToolResultJSON(profile)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getReminders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	activeOnly := req.GetBool("active_only", false)

	reminders := h.provider.GetScheduledReminders(ctx)
	filtered := []models.ScheduledReminder{}
	for _, r := range reminders {
		if activeOnly && r.Completed {
			continue
		}
		filtered = append(filtered, r)
	}

	result, err := mcp.NewToolResultJSON(filtered)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := map[string]any{
		"variants":           models.Exercises,
		"repCountedExercise": models.RepCountedExercise,
	}
	result, err := mcp.NewToolResultJSON(catalog)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) exportData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(h.provider.ExportData(ctx)), nil
}
