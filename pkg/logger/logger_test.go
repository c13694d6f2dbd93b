package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"weibodl/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "weibodl.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v", tt.level, err)
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, level, tt.expected)
			}
		})
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	log.WithField("post_id", "Kx1").
		WithFields(map[string]interface{}{"assets": 3}).
		InfoWithFields("resolved", map[string]interface{}{
			"duration": 2 * time.Second,
			"branch":   "pictures",
		})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "resolved", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "weibodl", entry["app"])
	assert.Equal(t, "Kx1", entry["post_id"])
	assert.Equal(t, float64(3), entry["assets"])
	assert.Equal(t, "pictures", entry["branch"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.WithError(errors.New("boom")).Error("also shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "shown", entries[0]["message"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	_ = parent.WithField("child", true)
	parent.Info("parent")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	_, ok := entries[0]["child"]
	assert.False(t, ok)
}

func TestTestLoggerCapturesFieldsAndErrors(t *testing.T) {
	log := NewTestLogger()

	log.WithField("filename", "210101000000.jpg").WithError(errors.New("reset")).Error("failed")
	log.Info("plain")

	msgs := log.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "210101000000.jpg", msgs[0].Fields["filename"])
	assert.EqualError(t, msgs[0].Error, "reset")
	assert.True(t, log.HasError())
	assert.True(t, log.HasMessage("plain"))

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestLogActivationLevels(t *testing.T) {
	log := NewTestLogger()

	LogActivation(log, "a1", "Kx1", 2, 0, nil)
	LogActivation(log, "a2", "Kx2", 2, 1, nil)
	LogActivation(log, "a3", "Kx3", 0, 0, errors.New("timeout"))

	assert.Len(t, log.GetMessagesByLevel("INFO"), 1)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
	assert.Len(t, log.GetMessagesByLevel("ERROR"), 1)
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	capture := NewTestLogger()
	SetLogger(capture)

	WithField("component", "scanner").Info("started")
	assert.True(t, capture.HasMessage("started"))
}

func TestNewFileOnly(t *testing.T) {
	l, err := NewFileOnly(&config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	assert.Nil(t, l.GetZerolog())

	path := filepath.Join(t.TempDir(), "logs", "weibodl.log")
	l, err = NewFileOnly(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.WithField("post_id", "Nabc123").Info("activation started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"post_id":"Nabc123"`)
	assert.Contains(t, string(data), `"message":"activation started"`)
}
