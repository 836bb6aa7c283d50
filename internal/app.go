// Package internal provides the App struct that wires all components of
// courrier together and initializes the CLI layer.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/courrier/internal/cli"
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/internal/integration"
	"github.com/valter-silva-au/courrier/internal/observability"
	"github.com/valter-silva-au/courrier/internal/storage"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// HomeEnv overrides the base path lookup.
const HomeEnv = "COURRIER_HOME"

// EventLogFileName is the activity log written under the storage directory.
const EventLogFileName = "events.jsonl"

// App holds all service dependencies for courrier.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Settings  *models.Settings
	Logger    *slog.Logger

	// Storage layer
	KV    storage.KVStore
	Store storage.LetterStore

	// Integration services
	Generator integration.Generator

	// Core services
	Registry  core.LetterTypeRegistry
	LetterMgr core.LetterManager

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components. basePath holds .courrierconfig and,
// unless the config says otherwise, the data directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath, cli.BuildAPIBaseURL())
	settings, err := app.ConfigMgr.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateSettings(settings); err != nil {
		return nil, err
	}
	app.Settings = settings
	app.Logger = observability.NewLogger(settings.Log, os.Stderr)

	// --- Observability ---
	if settings.EventLog {
		eventLogPath := filepath.Join(settings.StorageDir, EventLogFileName)
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without an activity log.
			app.Logger.Warn("event log disabled", "path", eventLogPath, "error", err)
			app.EventLog = nil
		}
	}

	// --- Storage ---
	app.KV = storage.NewFileKVStore(settings.StorageDir)
	app.Store = storage.NewLetterStore(app.KV, app.Logger, app.storeDegraded)

	// --- Integration ---
	app.Generator = integration.NewHTTPGenerator(settings.APIBaseURL, nil)

	// --- Core services ---
	app.Registry = core.NewLetterTypeRegistry()
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
	}
	app.LetterMgr = core.NewLetterManager(app.Registry, app.Store, app.Generator, events)

	// --- Wire CLI ---
	cli.LetterMgr = app.LetterMgr
	cli.EventLog = app.EventLog
	cli.Settings = app.Settings

	app.Logger.Debug("courrier initialized",
		"base_path", basePath,
		"storage_dir", settings.StorageDir,
		"api_base_url", settings.APIBaseURL,
	)
	return app, nil
}

// storeDegraded records unreadable store records in the activity log.
func (a *App) storeDegraded(key string, err error) {
	if a.EventLog == nil {
		return
	}
	_ = a.EventLog.LogEvent(observability.EventStoreDegraded, map[string]any{
		"key":   key,
		"error": err.Error(),
	})
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base directory for courrier.
// It checks COURRIER_HOME, then walks up from the current directory looking
// for .courrierconfig, then falls back to ~/.courrier.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	if dir, err := os.Getwd(); err == nil {
		for {
			if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".courrier")
	}
	return "."
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.LogEvent(eventType, data)
}
