package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	Logger zerolog.Logger
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

func init() {
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Configure sets up the global logger with the specified level. Dev mode
// switches to the human readable console writer.
func Configure(level LogLevel, isDev bool) {
	ConfigureWriter(level, isDev, os.Stderr)
}

// ConfigureWriter is Configure with an explicit destination. The watch
// command uses it to keep stdout clean for event output.
func ConfigureWriter(level LogLevel, isDev bool, out io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(string(level)))

	writer := out
	if isDev {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(writer).With().Timestamp().Logger()
	log.Logger = Logger
}

// ParseLevel maps a level name to zerolog, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch LogLevel(strings.ToLower(strings.TrimSpace(level))) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetLogLevelFromEnv determines log level from the DEBUG and ORCHDASH_LOG_LEVEL
// environment variables.
func GetLogLevelFromEnv(isDev bool) LogLevel {
	if lvl := os.Getenv("ORCHDASH_LOG_LEVEL"); lvl != "" {
		return LogLevel(strings.ToLower(lvl))
	}

	debug := strings.ToLower(os.Getenv("DEBUG"))

	// Dev mode defaults to debug unless explicitly disabled
	if isDev {
		if debug == "false" || debug == "0" {
			return LevelInfo
		}
		return LevelDebug
	}

	if debug == "true" || debug == "1" {
		return LevelDebug
	}

	return LevelInfo
}

func Debugf(format string, args ...interface{}) {
	Logger.Debug().Msgf(format, args...)
}

func Info(msg string) {
	Logger.Info().Msg(msg)
}

func Infof(format string, args ...interface{}) {
	Logger.Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Error().Msgf(format, args...)
}

// WithField creates a child logger carrying one field
func WithField(key string, value interface{}) zerolog.Logger {
	return Logger.With().Interface(key, value).Logger()
}
