package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestBuild_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "production", "info", "")

	log.Debug("hidden")
	log.Info("banner created", "id", 7)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "banner created", entry["msg"])
	assert.Equal(t, float64(7), entry["id"])
}

func TestBuild_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "development", "debug", "")

	log.Debug("sweep started")

	assert.Contains(t, buf.String(), "msg=\"sweep started\"")
}
