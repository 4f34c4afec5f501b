package mocks

import (
	"context"
	"sync"

	"github.com/groundwork-sh/groundwork/internal/ports"
)

// Record is one captured log entry.
type Record struct {
	Level   ports.Level
	Message string
	Fields  []ports.Field
}

// Field returns the value of the named field, or nil.
func (r Record) Field(key string) interface{} {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Logger is a capturing test double for ports.Logger. Loggers derived via
// With share the same capture buffer and lock.
type Logger struct {
	mu      *sync.Mutex
	level   ports.Level
	base    []ports.Field
	records *[]Record
}

// NewLogger creates a new capturing logger.
func NewLogger() *Logger {
	records := make([]Record, 0)
	return &Logger{
		mu:      &sync.Mutex{},
		level:   ports.LevelDebug,
		records: &records,
	}
}

// Records returns a copy of all captured entries in order.
func (l *Logger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(*l.records))
	copy(out, *l.records)
	return out
}

// RecordsAt returns captured entries filtered by level.
func (l *Logger) RecordsAt(level ports.Level) []Record {
	var out []Record
	for _, r := range l.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Debug captures a debug record.
func (l *Logger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.capture(ports.LevelDebug, msg, fields)
}

// Info captures an info record.
func (l *Logger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.capture(ports.LevelInfo, msg, fields)
}

// Warn captures a warn record.
func (l *Logger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.capture(ports.LevelWarn, msg, fields)
}

// Error captures an error record.
func (l *Logger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.capture(ports.LevelError, msg, fields)
}

// With returns a logger sharing the same capture buffer.
func (l *Logger) With(fields ...ports.Field) ports.Logger {
	base := make([]ports.Field, len(l.base)+len(fields))
	copy(base, l.base)
	copy(base[len(l.base):], fields)
	return &Logger{
		mu:      l.mu,
		level:   l.level,
		base:    base,
		records: l.records,
	}
}

// Level returns the minimum log level.
func (l *Logger) Level() ports.Level {
	return l.level
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level ports.Level) {
	l.level = level
}

func (l *Logger) capture(level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := make([]ports.Field, len(l.base)+len(fields))
	copy(all, l.base)
	copy(all[len(l.base):], fields)

	*l.records = append(*l.records, Record{
		Level:   level,
		Message: msg,
		Fields:  all,
	})
}

// Ensure Logger implements ports.Logger.
var _ ports.Logger = (*Logger)(nil)
