package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	SetLevel("INFO")
	SetFormat("text")
	t.Cleanup(func() {
		_ = Close()
		SetWriter(os.Stdout)
		SetLevel("INFO")
		SetFormat("text")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := resetLogger(t)

	Debug("hidden %d", 1)
	Info("shown %d", 2)
	SetLevel("error")
	Warn("hidden too")
	Error("failure %s", "x")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] shown 2")
	assert.Contains(t, out, "[ERROR] failure x")
}

func TestJSONFormat(t *testing.T) {
	buf := resetLogger(t)
	SetFormat("json")

	Warn("record %d denied", 7)

	var line struct {
		Level   string `json:"level"`
		Message string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "WARN", line.Level)
	assert.Equal(t, "record 7 denied", line.Message)
}

func TestJSONFormat_LevelsAndTime(t *testing.T) {
	buf := resetLogger(t)
	SetFormat("json")
	SetLevel("debug")

	Debug("allocated %d", 3)
	Error("exhausted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Time    time.Time `json:"time"`
		Level   string    `json:"level"`
		Message string    `json:"msg"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "DEBUG", first.Level)
	assert.Equal(t, "allocated 3", first.Message)
	assert.False(t, first.Time.IsZero())
	assert.Contains(t, lines[1], `"level":"ERROR"`)
}

func TestSetOutputFile(t *testing.T) {
	resetLogger(t)
	path := filepath.Join(t.TempDir(), "dittoreg.log")

	require.NoError(t, SetOutput(path))
	Info("to file")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to file"))
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}
