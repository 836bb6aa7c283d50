package cli

import (
	"github.com/valter-silva-au/courrier/internal/core"
	"github.com/valter-silva-au/courrier/internal/observability"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	LetterMgr core.LetterManager
	// EventLog is nil when storage.event_log is disabled.
	EventLog observability.EventLog
	Settings *models.Settings
)

// buildAPIBaseURL is injected at build time with
// -ldflags "-X github.com/valter-silva-au/courrier/internal/cli.buildAPIBaseURL=...".
var buildAPIBaseURL string

// BuildAPIBaseURL returns the generation service URL compiled into the binary,
// or "" when none was set.
func BuildAPIBaseURL() string {
	return buildAPIBaseURL
}
