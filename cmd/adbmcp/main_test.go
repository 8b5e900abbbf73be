package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/dracxi/adbmcpserver/internal/config"
	"github.com/dracxi/adbmcpserver/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// fakeADB writes a shell script that logs its arguments and answers a few
// commands the way adb does. It returns the script path and the log path.
func fakeADB(t *testing.T) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake adb is a POSIX shell script")
	}

	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	script := `#!/bin/sh
echo "$@" >> '` + logPath + `'
case "$*" in
  *"pm list packages"*)
    echo "package:com.example.one"
    echo "package:com.android.settings"
    ;;
  *"devices -l"*)
    echo "List of devices attached"
    echo "emulator-5554          device product:sdk_gphone64 model:Pixel_7 transport_id:1"
    ;;
  *"am force-stop"*)
    echo "Security exception: not allowed" >&2
    exit 255
    ;;
esac
exit 0
`
	path := filepath.Join(dir, "adb")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path, logPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func calls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestPackagesCommand(t *testing.T) {
	adb, log := fakeADB(t)
	out, err := run(t, "--adb", adb, "-s", "emu", "packages")
	require.NoError(t, err)
	assert.Equal(t, "com.example.one\ncom.android.settings\n", out)
	assert.Equal(t, []string{"-s emu shell pm list packages"}, calls(t, log))
}

func TestTapAndSwipeCommands(t *testing.T) {
	adb, log := fakeADB(t)

	out, err := run(t, "--adb", adb, "-s", "emu", "tap", "540", "1200")
	require.NoError(t, err)
	assert.Equal(t, "Touch at (540, 1200)\n", out)

	out, err = run(t, "--adb", adb, "-s", "emu", "swipe", "500", "1500", "500", "300", "--duration", "250")
	require.NoError(t, err)
	assert.Equal(t, "Swipe from (500, 1500) to (500, 300)\n", out)

	assert.Equal(t, []string{
		"-s emu shell input tap 540 1200",
		"-s emu shell input swipe 500 1500 500 300 250",
	}, calls(t, log))
}

func TestTapCommand_InvalidCoordinate(t *testing.T) {
	adb, _ := fakeADB(t)
	_, err := run(t, "--adb", adb, "tap", "left", "10")
	assert.ErrorContains(t, err, `invalid coordinate "left"`)
}

func TestDevicesCommand(t *testing.T) {
	adb, _ := fakeADB(t)
	out, err := run(t, "--adb", adb, "devices")
	require.NoError(t, err)
	assert.Equal(t, "emulator-5554 device product:sdk_gphone64 model:Pixel_7 transport_id:1\n", out)
}

func TestStopCommand_ProcessFailure(t *testing.T) {
	adb, _ := fakeADB(t)
	_, err := run(t, "--adb", adb, "-s", "emu", "stop", "com.android.settings")
	require.Error(t, err)
	assert.Equal(t, "Error: Security exception: not allowed\n", err.Error())
}

func TestCallCommand(t *testing.T) {
	adb, log := fakeADB(t)
	out, err := run(t, "--adb", adb, "-s", "emu", "call", "launch_app", `{"package_name": "com.android.settings", "activity": ".Settings"}`)
	require.NoError(t, err)
	assert.Equal(t, "Launched com.android.settings\n", out)
	assert.Equal(t, []string{"-s emu shell am start -n com.android.settings/.Settings"}, calls(t, log))
}

func TestCallCommand_Errors(t *testing.T) {
	adb, _ := fakeADB(t)

	_, err := run(t, "--adb", adb, "call", "nope")
	assert.ErrorContains(t, err, "tool not found")

	_, err = run(t, "--adb", adb, "call", "touch", "{not json")
	assert.ErrorContains(t, err, "invalid JSON arguments")
}

func TestToolsCommand(t *testing.T) {
	adb, _ := fakeADB(t)
	out, err := run(t, "--adb", adb, "tools")
	require.NoError(t, err)
	for _, name := range []string{"get_packages", "execute_adb_shell_command", "get_uilayout", "swipe", "get_device_info"} {
		assert.Contains(t, out, name)
	}
}

func TestMissingADB(t *testing.T) {
	_, err := run(t, "--adb", filepath.Join(t.TempDir(), "missing-adb"), "packages")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Unexpected Error: "), err.Error())
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: carrier-pigeon\n"), 0o644))

	_, err := run(t, "--config", path, "devices")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestApplyReloaded_KeepsFlagOverrides(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "debug"})
	require.NoError(t, err)
	t.Cleanup(func() { logging.Install(nil, nil) })

	a := &app{verbose: true, serial: "emu", timeout: 5 * time.Second}
	reloaded := config.DefaultConfig()
	reloaded.Logging.Level = "info"
	a.applyReloaded(reloaded)

	assert.True(t, logging.Root().Core().Enabled(zapcore.DebugLevel), "--verbose survives a reload")
	assert.Equal(t, "debug", reloaded.Logging.Level)
	assert.Equal(t, "emu", reloaded.ADB.Serial)
	assert.Equal(t, "5s", reloaded.Execution.DefaultTimeout)
}

func TestApplyReloaded_UsesFileLevelWithoutFlags(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "debug"})
	require.NoError(t, err)
	t.Cleanup(func() { logging.Install(nil, nil) })

	a := &app{}
	reloaded := config.DefaultConfig()
	reloaded.Logging.Level = "warn"
	a.applyReloaded(reloaded)

	assert.False(t, logging.Root().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logging.Root().Core().Enabled(zapcore.WarnLevel))
}
