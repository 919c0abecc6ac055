package manifoldscan

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with scan-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithFunction adds the table function name to the logger.
func (l *Logger) WithFunction(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("function", name),
	}
}

// WithLocation adds the database location to the logger.
func (l *Logger) WithLocation(location string) *Logger {
	return &Logger{
		Logger: l.Logger.With("location", location),
	}
}

// LogBind logs the outcome of binding one table function invocation.
func (l *Logger) LogBind(function, location string, columns int, err error) {
	if err != nil {
		l.Error("bind failed",
			"function", function,
			"location", location,
			"error", err,
		)
	} else {
		l.Debug("bind completed",
			"function", function,
			"location", location,
			"columns", columns,
		)
	}
}

// LogScanExhausted logs a scan reaching its terminal state.
func (l *Logger) LogScanExhausted(function string, rows int64) {
	l.Debug("scan exhausted",
		"function", function,
		"rows", rows,
	)
}

// LogMaterialize logs the resolution of a remote location.
func (l *Logger) LogMaterialize(location, path string, err error) {
	if err != nil {
		l.Error("materialize failed",
			"location", location,
			"error", err,
		)
	} else {
		l.Debug("materialize completed",
			"location", location,
			"path", path,
		)
	}
}
