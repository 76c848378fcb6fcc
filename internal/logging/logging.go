// Package logging installs the process-wide slog default logger.
//
// Diagnostics go to stderr only. The audit trail is a separate append-only
// file owned by internal/audit and is never routed through slog.
package logging

import (
	"log/slog"
	"os"
)

// Configure installs a text handler on stderr. The default level is warn so
// a routine privileged invocation emits nothing unless something is wrong;
// debug widens it for troubleshooting.
func Configure(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}
