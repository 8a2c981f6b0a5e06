// Package logging defines the structured-logging surface the engine's
// packages log through, so callers depend on a small interface instead
// of a concrete slog.Logger.
package logging

import (
	"fmt"
	"log/slog"
)

// Logger is the logging surface used throughout the engine. It is a
// superset of pkg/player's own Logger interface, so a Logger here can be
// passed directly to player.NewSession.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type defaultLogger struct{}

// DefaultLogger returns a Logger backed by slog's package-level default.
func DefaultLogger() Logger {
	return defaultLogger{}
}

func (defaultLogger) Debugf(format string, args ...any) { slog.Debug(fmt.Sprintf(format, args...)) }
func (defaultLogger) Infof(format string, args ...any)  { slog.Info(fmt.Sprintf(format, args...)) }
func (defaultLogger) Warnf(format string, args ...any)  { slog.Warn(fmt.Sprintf(format, args...)) }
func (defaultLogger) Errorf(format string, args ...any) { slog.Error(fmt.Sprintf(format, args...)) }

// SlogLogger adapts an existing *slog.Logger (e.g. one configured with a
// JSON handler and request-scoped attributes) to Logger.
func SlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l}
}

type slogLogger struct {
	*slog.Logger
}

func (s *slogLogger) Debugf(format string, args ...any) {
	s.Logger.Debug(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Infof(format string, args ...any) {
	s.Logger.Info(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Warnf(format string, args ...any) {
	s.Logger.Warn(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Errorf(format string, args ...any) {
	s.Logger.Error(fmt.Sprintf(format, args...))
}
