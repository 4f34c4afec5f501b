package logging

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundwork-sh/groundwork/internal/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	logger := NewConsoleLogger(WithOutput(&buf), WithLevel(ports.LevelWarn), WithColor(false))

	ctx := context.Background()
	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")
	logger.Error(ctx, "also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
}

func TestConsoleLogger_Fields(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	logger := NewConsoleLogger(WithOutput(&buf), WithColor(false))

	logger.With(ports.F("step", "apt:package:docker.io")).Info(context.Background(), "starting")

	assert.Contains(t, buf.String(), "step=apt:package:docker.io")
}

func TestConsoleLogger_JSON(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	logger := NewConsoleLogger(WithOutput(&buf), WithJSONFormat(true))

	logger.Error(context.Background(), "step failed", ports.F("exit_code", 1))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "step failed", entry["msg"])
	assert.Equal(t, float64(1), entry["exit_code"])
}

func TestFileLogger_AppendsAcrossOpens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "run.log")
	ctx := context.Background()

	first, err := NewFileLogger(path)
	require.NoError(t, err)
	first.Info(ctx, "first run")
	require.NoError(t, first.Close())

	second, err := NewFileLogger(path)
	require.NoError(t, err)
	second.Info(ctx, "second run")
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}

func TestTeeLogger_FansOut(t *testing.T) {
	t.Parallel()

	var a, b strings.Builder
	tee := NewTeeLogger(
		NewConsoleLogger(WithOutput(&a), WithColor(false)),
		NewConsoleLogger(WithOutput(&b), WithColor(false)),
	)

	tee.Warn(context.Background(), "both sinks")

	assert.Contains(t, a.String(), "both sinks")
	assert.Contains(t, b.String(), "both sinks")
}

func TestNopLogger_DoesNothing(t *testing.T) {
	t.Parallel()

	logger := NewNopLogger()
	logger.Info(context.Background(), "discarded")
	logger.SetLevel(ports.LevelError)

	assert.Equal(t, ports.LevelError, logger.Level())
}
