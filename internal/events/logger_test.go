package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(WarnLevel, "text", &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown warn")
	logger.Error("shown error")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "shown warn")
	assert.Contains(t, output, "shown error")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(InfoLevel, "json", &buf)

	logger.WithField("game", "Stardew Valley").Info("scan complete")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "scan complete", entry["msg"])
	assert.Equal(t, "Stardew Valley", entry["game"])
	assert.NotEmpty(t, entry["time"])
	assert.NotEmpty(t, entry["caller"])
}

func TestLoggerFieldsDoNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := NewTestLogger(InfoLevel, "text", &buf)

	scoped := base.WithField("component", "scanner")
	scoped.Info("scoped entry")
	base.Info("base entry")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "component=scanner")
	assert.NotContains(t, lines[1], "component=scanner")
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(InfoLevel, "text", &buf)

	logger.WithError(errors.New("disk full")).Error("backup failed")
	assert.Contains(t, buf.String(), "error=disk full")
}

func TestLoggerJSONEscaping(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(InfoLevel, "json", &buf)

	logger.WithField("path", `C:\Games\saves`).Info(`quote " and newline
end`)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, `C:\Games\saves`, entry["path"])
}
