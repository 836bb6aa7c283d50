package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// NewLogger creates the diagnostic logger and installs it as slog's default.
//
// Format "json" produces structured JSON lines; anything else produces text.
// Level is one of debug, info, warn, error (case-insensitive); unknown values
// fall back to warn so a CLI run stays quiet.
func NewLogger(cfg models.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
