// Package observability wires the process-wide loggers.
//
// CLILogger is tuned for terminal output: no timestamps or caller
// annotations in console mode, structured JSON when requested. Library
// packages never log through it directly; they receive a *zap.Logger.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by command implementations. Reconfigured
// by Init once flags and config are known.
var CLILogger = mustLogger("info", false)

// Init replaces CLILogger with one at the given level. structured
// switches from console output to JSON.
func Init(level string, structured bool) error {
	logger, err := NewLogger(level, structured)
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// NewLogger builds a logger without touching the package-level one, for
// components that want their own (e.g. the HTTP server).
func NewLogger(level string, structured bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""
	if structured {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func mustLogger(level string, structured bool) *zap.Logger {
	logger, err := NewLogger(level, structured)
	if err != nil {
		panic(err)
	}
	return logger
}

// Sync flushes buffered log entries. Called on process exit.
func Sync() {
	_ = CLILogger.Sync()
}
