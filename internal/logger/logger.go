package logger

import (
	"log/slog"
	"os"
)

// New returns the service-wide slog.Logger: JSON lines on stdout at
// info level. PAN redaction happens at the call sites, not here.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
