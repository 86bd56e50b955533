// Package logger configures the process-wide zerolog logger and provides
// context helpers for retrieving request-scoped sub-loggers.
package logger

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global zerolog logger with the given level.
// Unknown levels fall back to info.
func Setup(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	// Contexts without an attached logger fall back to the global one
	// instead of a disabled logger.
	zerolog.DefaultContextLogger = &log.Logger
}

// FromContext returns the logger attached to ctx, or the global logger when
// none is attached. Middleware attaches a sub-logger carrying the trace_id.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
