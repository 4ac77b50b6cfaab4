package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger interface for structured logging. Fields are alternating
// key/value pairs.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
	With(fields ...interface{}) Logger
}

// SlogLogger implements Logger on top of log/slog
type SlogLogger struct {
	logger *slog.Logger
	exit   func(code int)
}

// New creates a text logger writing to w at the given level
func New(w io.Writer, level string) *SlogLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &SlogLogger{
		logger: slog.New(handler),
		exit:   os.Exit,
	}
}

// NewSimpleLogger creates a logger on stdout at info level
func NewSimpleLogger() Logger {
	return New(os.Stdout, "info")
}

// NewNopLogger discards everything
func NewNopLogger() Logger {
	return New(io.Discard, "error")
}

// ParseLevel maps a LOG_LEVEL value onto a slog level; unknown values are info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a logger that adds fields to every record
func (l *SlogLogger) With(fields ...interface{}) Logger {
	return &SlogLogger{logger: l.logger.With(fields...), exit: l.exit}
}

// Info logs an info message
func (l *SlogLogger) Info(msg string, fields ...interface{}) {
	l.logger.Info(msg, fields...)
}

// Error logs an error message
func (l *SlogLogger) Error(msg string, err error, fields ...interface{}) {
	l.logger.Error(msg, withError(err, fields)...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg, fields...)
}

// Debug logs a debug message
func (l *SlogLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg, fields...)
}

// Fatal logs a fatal error and exits
func (l *SlogLogger) Fatal(msg string, err error, fields ...interface{}) {
	l.logger.Error(msg, withError(err, fields)...)
	l.exit(1)
}

func withError(err error, fields []interface{}) []interface{} {
	if err == nil {
		return fields
	}
	return append([]interface{}{"error", err.Error()}, fields...)
}
