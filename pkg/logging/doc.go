// Package logging builds the slog loggers used by both binaries.
//
// New(w, Config) returns a JSON (default) or text logger at the configured
// level; Setup does the same and installs it as the slog default.
// ParseLevel accepts debug|info|warn|warning|error (case-insensitive) and
// falls back to info.
package logging
