package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{name: "", want: slog.LevelInfo},
		{name: "info", want: slog.LevelInfo},
		{name: "DEBUG", want: slog.LevelDebug},
		{name: " warn ", want: slog.LevelWarn},
		{name: "warning", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "debug", Format: FormatJSON})
	require.NoError(t, err)

	logger.Debug("opened store", "backend", "sqlite")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "opened store", rec["msg"])
	assert.Equal(t, "sqlite", rec["backend"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestNewTextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn", NoColor: true})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "id=7")
}

func TestNewLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "error")

	var buf bytes.Buffer
	logger, err := New(&buf, Options{NoColor: true})
	require.NoError(t, err)

	logger.Warn("hidden")
	assert.Empty(t, buf.String())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	assert.ErrorContains(t, err, "unknown log level")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Format: "xml"})
	assert.ErrorContains(t, err, "unknown log format")
}

func TestSetupWritesToGivenWriter(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, Options{Level: "info", Format: FormatText}))
	slog.Info("ready", "backend", "gorm")

	out := buf.String()
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "backend=gorm")
	assert.NotContains(t, out, "\x1b[", "non-terminal output is uncolored")
}
