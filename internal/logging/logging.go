// Package logging builds the host logger.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/askiada/go-featurepipe/internal/config"
)

// New returns a logger writing to w, usually the diagnostic stream, in the format and at the level
// of cfg. An unknown level falls back to info.
func New(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	if cfg.LogFormat == config.FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
