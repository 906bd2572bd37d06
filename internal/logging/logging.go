// Package logging builds the slog logger used by the sheetlock CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Level represents logging verbosity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config holds logger configuration.
type Config struct {
	Level      Level
	Format     string // "json" or "text"
	OutputPath string // empty for stderr
}

// New builds a logger from cfg. The returned close function releases the
// log file, if one was opened, and is safe to call when there is none.
func New(cfg Config) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, nil, err
	}

	var (
		writer  io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writer = file
		closeFn = file.Close
	}

	return slog.New(NewHandler(writer, cfg.Format, level)), closeFn, nil
}

// NewHandler returns a JSON or text handler writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelInfo, "":
		return slog.LevelInfo, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (must be debug, info, warn or error)", s)
	}
}
