package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithWriters_Fanout(t *testing.T) {
	var text, jsonOut bytes.Buffer
	logger := NewWithWriters(&text, &jsonOut, "info")

	logger.Debug("hidden")
	logger.Info("cycle complete", "city", "Abidjan", "spikes", 17)

	assert.NotContains(t, text.String(), "hidden")
	assert.Contains(t, text.String(), "city=Abidjan")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &entry))
	assert.Equal(t, "cycle complete", entry["msg"])
	assert.Equal(t, float64(17), entry["spikes"])
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neurowind.log")
	logger, closeFn := New("debug", path)
	logger.Debug("written")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "o***@example.com", RedactEmail("ops@example.com"))
	assert.Equal(t, "***", RedactEmail("no-at-sign"))
	assert.Equal(t, "***", RedactEmail("@example.com"))
}

func TestNewFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui.log")
	logger, closeFile := NewFileOnly("info", path)
	logger.Debug("hidden")
	logger.Info("visible", "city", "Bouaké")
	require.NoError(t, closeFile())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "Bouaké", entry["city"])
}

func TestNewFileOnly_UnwritablePath(t *testing.T) {
	logger, closeFile := NewFileOnly("info", filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	logger.Info("dropped")
	assert.NoError(t, closeFile())
}
