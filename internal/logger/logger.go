// Package logger wraps zerolog with request-scoped context helpers.
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// New creates the process logger at the given level. Unknown level strings
// fall back to info.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(lvl)

	zerolog.DefaultContextLogger = &log
	return log
}

// Component returns a sub-logger tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// FromContext returns the request-scoped logger, or the default logger when
// none was attached.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// NewContext attaches a logger to the context.
func NewContext(ctx context.Context, log zerolog.Logger) context.Context {
	return log.WithContext(ctx)
}
