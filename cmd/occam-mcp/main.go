// occam-mcp serves the training data to MCP clients over stdio, backed by
// whichever storage provider the config selects.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/occam/internal/config"
	"github.com/claude/occam/internal/mcp"
	"github.com/claude/occam/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Log to stderr; stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	provider, err := storage.New(cfg.Storage, log)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	srv := mcp.New(provider, Version, log)
	log.Info("occam-mcp serving on stdio", "mode", cfg.Storage.Mode)

	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
