package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/MHC32/momentum/internal/config"
)

var globalLogger zerolog.Logger

// Logs go to stderr so that momentumctl output on stdout stays parseable.
func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	globalLogger = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Caller().
		Int("pid", os.Getpid()).
		Str("app", "momentum").
		Logger()

	globalLogger.Info().Msg("initialized default logger")
}

// MustInitApplicationLogger applies the level of the environment, or the
// configured override, and moves output to the log file when one is set.
func MustInitApplicationLogger() {
	cfg := config.Global()

	level, console, err := logLevel(cfg.Env, cfg.Log.Level)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("env", cfg.Env).
			Msg("invalid log settings")
		panic(err)
	}
	zerolog.SetGlobalLevel(level)

	w, err := logOutput(cfg.Log.File, console)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("file", cfg.Log.File).
			Msg("failed to open log file")
		panic(err)
	}

	globalLogger = globalLogger.Output(w)
	globalLogger.Info().
		Str("level", level.String()).
		Msg("initialized application logger")
}

// logLevel maps the environment to its default level. console reports
// whether the environment wants human readable output.
func logLevel(env, override string) (level zerolog.Level, console bool, err error) {
	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level, console = zerolog.TraceLevel, true
	default:
		return zerolog.NoLevel, false, fmt.Errorf("unknown env: %s", env)
	}

	if override != "" {
		level, err = zerolog.ParseLevel(override)
		if err != nil {
			return zerolog.NoLevel, false, fmt.Errorf("invalid log level %q: %w", override, err)
		}
	}
	return level, console, nil
}

// logOutput appends JSON lines to path when it is set. The console writer
// is only used on stderr.
func logOutput(path string, console bool) (io.Writer, error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	if !console {
		return os.Stderr, nil
	}

	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = time.DateTime
	consoleWriter.Out = os.Stderr
	return consoleWriter, nil
}

// Logger returns the process logger tagged with a component name.
func Logger(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}
