package logging

import (
	"context"

	"github.com/groundwork-sh/groundwork/internal/ports"
)

// TeeLogger fans every record out to multiple loggers, typically the
// color-coded console sink and the persistent run log.
type TeeLogger struct {
	sinks []ports.Logger
}

// NewTeeLogger creates a logger that forwards to all given sinks.
func NewTeeLogger(sinks ...ports.Logger) *TeeLogger {
	return &TeeLogger{sinks: sinks}
}

// Debug forwards a debug message to all sinks.
func (l *TeeLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range l.sinks {
		s.Debug(ctx, msg, fields...)
	}
}

// Info forwards an informational message to all sinks.
func (l *TeeLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range l.sinks {
		s.Info(ctx, msg, fields...)
	}
}

// Warn forwards a warning message to all sinks.
func (l *TeeLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range l.sinks {
		s.Warn(ctx, msg, fields...)
	}
}

// Error forwards an error message to all sinks.
func (l *TeeLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, s := range l.sinks {
		s.Error(ctx, msg, fields...)
	}
}

// With returns a new TeeLogger whose sinks all carry the extra fields.
func (l *TeeLogger) With(fields ...ports.Field) ports.Logger {
	sinks := make([]ports.Logger, len(l.sinks))
	for i, s := range l.sinks {
		sinks[i] = s.With(fields...)
	}
	return &TeeLogger{sinks: sinks}
}

// Level returns the most verbose level among the sinks.
func (l *TeeLogger) Level() ports.Level {
	level := ports.LevelError
	for _, s := range l.sinks {
		if s.Level() < level {
			level = s.Level()
		}
	}
	return level
}

// SetLevel sets the minimum level on every sink.
func (l *TeeLogger) SetLevel(level ports.Level) {
	for _, s := range l.sinks {
		s.SetLevel(level)
	}
}

// Ensure TeeLogger implements Logger.
var _ ports.Logger = (*TeeLogger)(nil)
