// Package observability provides the diagnostic slog logger and the JSON
// Lines event log recording letter lifecycle events (generation, failures,
// deletions, degraded storage reads).
package observability
