package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func New() zerolog.Logger {
	return SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

// ParseLevel falls back to info for empty or unknown values.
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

var Module = fx.Provide(New)
