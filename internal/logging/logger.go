// Package logging builds the service's structured zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/pocketledger/backend/internal/config"
	"github.com/rs/zerolog"
)

// New creates the process logger. Development gets a console writer, everything else JSON on stdout.
func New(cfg config.AppConfig) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return NewWithOutput(cfg, out)
}

// NewWithOutput creates a logger writing to w.
func NewWithOutput(cfg config.AppConfig, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("app", cfg.Name).
		Str("service", cfg.Service).
		Str("env", cfg.Environment).
		Logger()
}

func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
