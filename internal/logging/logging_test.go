package logging

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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Build(Config{Level: "warn", Format: "json"}, zapcore.AddSync(&buf), false)

	l.Info("hidden")
	l.With(zap.String("run_id", "r1")).Warn("shown", zap.Int("rows", 3))
	require.NoError(t, l.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Contains(t, entry, "timestamp")
}

func TestBuildConsoleWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	l := Build(Config{Level: "bogus", Format: "console"}, zapcore.AddSync(&buf), false)

	l.Debug("below default level")
	l.Info("loaded", Elapsed(time.Now()))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "below default level")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "elapsed")
	assert.NotContains(t, out, "\x1b[")
}

func TestInitializeFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", Output: path}))
	t.Cleanup(UseNop)

	ForRun("abc").Debug("to file")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id":"abc"`)
}

func TestInitializeBadPath(t *testing.T) {
	err := Initialize(Config{Output: filepath.Join(t.TempDir(), "missing", "run.log")})
	assert.Error(t, err)
}
