package log_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parcelsales/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFilePluginWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.log")

	p, c := log.NewFilePlugin(path, zapcore.InfoLevel)
	logger := log.NewLogger(p)
	logger.Debug("hidden")
	logger.Warn("fetch attempt failed", zap.String("parcel", "01-00001-000"), zap.Int("attempt", 2))
	require.NoError(t, c.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "fetch attempt failed", entry["msg"])
	assert.Equal(t, "01-00001-000", entry["parcel"])
	assert.EqualValues(t, 2, entry["attempt"])
	assert.Contains(t, entry, "caller")
}

func TestSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process_log.log")

	logger, closer, err := log.Setup("debug", path)
	require.NoError(t, err)
	logger.Info("finished", zap.String("group", "36-21-31"))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"group":"36-21-31"`)
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	_, _, err := log.Setup("chatty", "")
	assert.Error(t, err)
}
