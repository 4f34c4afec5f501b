package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/groundwork-sh/groundwork/internal/ports"
)

// DefaultRunLogPath is where apply runs are journaled unless overridden.
const DefaultRunLogPath = "/var/log/groundwork/run.log"

// FileLogger appends plain-text records to a persistent run log.
// Records are never rewritten; each run appends to the same file.
type FileLogger struct {
	mu     sync.Mutex
	file   *os.File
	level  ports.Level
	fields []ports.Field
}

// NewFileLogger opens (creating if necessary) the run log at path.
func NewFileLogger(path string) (*FileLogger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	return &FileLogger{
		file:  file,
		level: ports.LevelDebug,
	}, nil
}

// Close closes the underlying log file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Debug logs a debug message.
func (l *FileLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *FileLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Warn logs a warning message.
func (l *FileLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *FileLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// With returns a new logger with additional fields sharing the same file.
func (l *FileLogger) With(fields ...ports.Field) ports.Logger {
	newFields := make([]ports.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &FileLogger{
		file:   l.file,
		level:  l.level,
		fields: newFields,
	}
}

// Level returns the minimum log level.
func (l *FileLogger) Level() ports.Level {
	return l.level
}

// SetLevel sets the minimum log level.
func (l *FileLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *FileLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s", time.Now().Format(time.RFC3339), level.String(), msg)
	for _, f := range l.fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		line += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}

	_, _ = fmt.Fprintln(l.file, line)
}

// Ensure FileLogger implements Logger.
var _ ports.Logger = (*FileLogger)(nil)
