package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a configured level name onto a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger creates a logger writing to out (stdout when nil) tagged with the binary name.
// The level applies to this logger only; the zerolog global level is left untouched.
func NewLogger(cfg LoggerConfig, app string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}
