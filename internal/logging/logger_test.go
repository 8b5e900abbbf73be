package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, cats map[string]bool) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Install(zap.New(core), cats)
	t.Cleanup(func() { Install(nil, nil) })
	return logs
}

func TestGet_NamesLoggerByCategory(t *testing.T) {
	logs := observe(t, nil)

	Device("tap at %d,%d", 10, 20)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "device", entries[0].LoggerName)
	assert.Equal(t, "tap at 10,20", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestGet_DisabledCategoryIsNoop(t *testing.T) {
	logs := observe(t, map[string]bool{"tactile": false})

	Tactile("should not appear")
	TactileError("nor this")
	Device("this one does")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "device", entries[0].LoggerName)
	assert.False(t, IsCategoryEnabled(CategoryTactile))
	assert.True(t, IsCategoryEnabled(CategoryHierarchy))
}

func TestSetCategories_ResetsCachedLoggers(t *testing.T) {
	logs := observe(t, nil)

	Tools("first")
	SetCategories(map[string]bool{"tools": false})
	Tools("second")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Message)
}

func TestLogger_With(t *testing.T) {
	logs := observe(t, nil)

	Get(CategoryTools).With("tool", "touch").Info("called")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "touch", entries[0].ContextMap()["tool"])
}

func TestTimer_StopWithThreshold(t *testing.T) {
	logs := observe(t, nil)

	timer := StartTimer(CategoryDevice, "dump")
	timer.start = time.Now().Add(-2 * time.Second)
	timer.StopWithThreshold(time.Second)

	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Message, "dump took"))
}

func TestNew_WritesToFileAndHonorsLevel(t *testing.T) {
	t.Cleanup(func() { Install(nil, nil) })
	path := filepath.Join(t.TempDir(), "adbmcp.log")

	_, err := New(Options{Level: "warn", Format: "json", File: path})
	require.NoError(t, err)

	Device("dropped at warn level")
	DeviceWarn("kept")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped at warn level")
	assert.Contains(t, string(data), `"msg":"kept"`)

	require.NoError(t, SetLevel("debug"))
	DeviceDebug("now visible")
	Sync()
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "now visible")
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)

	assert.Error(t, SetLevel("chatty"))
}
