package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("nonsense").GetLevel())
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("info", &buf)

	LogError(logger, "handlers", "Analyze", map[string]int{"rows": 3}, errors.New("disk full"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk full", entry["msg"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "handlers", entry["module"])
	assert.Equal(t, "Analyze", entry["funcName"])
	assert.NotNil(t, entry["data"])
}
