package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config selects the level and encoding of log output.
type Config struct {
	// Level is one of: debug | info | warn | error. Defaults to info.
	Level string `yaml:"level"`

	// Format is one of: json | text. Defaults to json.
	Format string `yaml:"format"`
}

// New returns a logger writing to w.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup builds a logger with New and makes it the process default.
func Setup(w io.Writer, cfg Config) *slog.Logger {
	logger := New(w, cfg)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidFormat reports whether f names a supported format. Empty means default.
func ValidFormat(f string) bool {
	switch strings.ToLower(f) {
	case "", FormatJSON, FormatText:
		return true
	}
	return false
}
