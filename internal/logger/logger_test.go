package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ConsoleText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Config{Level: LevelInfo, Format: FormatText}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", zap.String("key", "value"))
	logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "value")
}

func TestNew_ConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Config{Level: LevelDebug, Format: FormatJSON}, &buf)
	require.NoError(t, err)

	logger.Debug("debug line")
	logger.Sync()

	assert.Contains(t, buf.String(), `"msg":"debug line"`)
}

func TestNew_File(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "purge.log")

	var buf bytes.Buffer
	logger, err := newLogger(Config{Level: LevelWarn, File: logPath, MaxSize: 1}, &buf)
	require.NoError(t, err)

	logger.Info("not written")
	logger.Warn("purge failed", zap.Int("status", 403))
	logger.Sync()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"purge failed"`)
	assert.Contains(t, string(content), `"status":403`)
	assert.NotContains(t, string(content), "not written")
	assert.Contains(t, buf.String(), "purge failed")
}

func TestNew_UnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	assert.Error(t, err)
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	level, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, level)
}
