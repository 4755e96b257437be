// Package logging builds the application's slog logger. Output goes to a
// file because the terminal is owned by the UI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a logger writing to w in the given format ("json" or "text").
func New(w io.Writer, level, format string) *slog.Logger {
	var handler slog.Handler
	logLevel := ParseLevel(level)

	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.DateTime,
			NoColor:    true,
		})
	}

	return slog.New(handler)
}

// OpenFile opens (appending) the log file at path and returns a logger on it.
// The caller closes the returned file.
func OpenFile(path, level, format string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, level, format), f, nil
}

func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
