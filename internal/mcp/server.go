// Package mcp exposes the tracked training data to MCP clients as
// read-only tools and resources over the storage provider.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/occam/internal/storage"
)

// New creates an MCP server with all tools and resources registered.
func New(provider storage.Provider, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Occam's Protocol", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Occam's Protocol training tracker. Query logged training sessions, body measurements, settings, profile, and workout reminders. All dates are YYYY-MM-DD strings."),
	)

	h := &handlers{provider: provider, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetMeasurements, Handler: h.getMeasurements},
		server.ServerTool{Tool: toolGetSettings, Handler: h.getSettings},
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
		server.ServerTool{Tool: toolGetReminders, Handler: h.getReminders},
		server.ServerTool{Tool: toolGetExerciseCatalog, Handler: h.getExerciseCatalog},
		server.ServerTool{Tool: toolExportData, Handler: h.exportData},
	)

	s.AddResources(
		server.ServerResource{Resource: resFullData, Handler: h.fullData},
		server.ServerResource{Resource: resLatestSession, Handler: h.latestSession},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	provider storage.Provider
	log      *slog.Logger
}

// --- Resource definitions ---

var resFullData = mcp.NewResource(
	"occam://data",
	"Full Training Data",
	mcp.WithResourceDescription("The complete aggregate: sessions, measurements, settings, profile, and reminders"),
	mcp.WithMIMEType("application/json"),
)

var resLatestSession = mcp.NewResource(
	"occam://latest_session",
	"Latest Training Session",
	mcp.WithResourceDescription("The most recently dated training session, or null when none is logged"),
	mcp.WithMIMEType("application/json"),
)
