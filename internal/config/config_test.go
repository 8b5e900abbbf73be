package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADBMCP_ADB_PATH", "ANDROID_SERIAL", "ADBMCP_SCRATCH_DIR", "ADBMCP_UNIQUE_SCRATCH",
		"ADBMCP_TIMEOUT", "ADBMCP_TRANSPORT", "ADBMCP_ADDR", "ADBMCP_LOG_LEVEL", "ADBMCP_LOG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "adb", cfg.ADB.Path)
	assert.Equal(t, "/sdcard", cfg.ADB.ScratchDir)
	assert.True(t, cfg.ADB.UniqueScratch)
	assert.Equal(t, int64(1), cfg.GetMaxConcurrent())
	assert.Equal(t, "ADB", cfg.Server.Name)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, 60*time.Second, cfg.GetExecutionTimeout())
	assert.Contains(t, cfg.Execution.AllowedEnvVars, "ANDROID_SERIAL")
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "adbmcp.yaml")

	cfg := DefaultConfig()
	cfg.ADB.Serial = "emulator-5554"
	cfg.ADB.UniqueScratch = false
	cfg.Server.Transport = "http"
	cfg.Logging.Categories = map[string]bool{"tactile": false}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "emulator-5554", loaded.ADB.Serial)
	assert.False(t, loaded.ADB.UniqueScratch)
	assert.Equal(t, "http", loaded.Server.Transport)
	assert.Equal(t, map[string]bool{"tactile": false}, loaded.Logging.Categories)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "adbmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adb:\n  serial: abc123\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.ADB.Serial)
	assert.Equal(t, "adb", cfg.ADB.Path)
	assert.Equal(t, "/sdcard", cfg.ADB.ScratchDir)
}

func TestLoad_MissingFileAppliesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANDROID_SERIAL", "R58M123")
	t.Setenv("ADBMCP_TIMEOUT", "5s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "R58M123", cfg.ADB.Serial)
	assert.Equal(t, 5*time.Second, cfg.GetExecutionTimeout())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adbmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adb: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADBMCP_ADB_PATH", "/opt/platform-tools/adb")
	t.Setenv("ADBMCP_SCRATCH_DIR", "/data/local/tmp")
	t.Setenv("ADBMCP_UNIQUE_SCRATCH", "false")
	t.Setenv("ADBMCP_TRANSPORT", "HTTP")
	t.Setenv("ADBMCP_ADDR", ":9000")
	t.Setenv("ADBMCP_LOG_LEVEL", "debug")
	t.Setenv("ADBMCP_LOG_FILE", "/tmp/adbmcp.log")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "/opt/platform-tools/adb", cfg.ADB.Path)
	assert.Equal(t, "/data/local/tmp", cfg.ADB.ScratchDir)
	assert.False(t, cfg.ADB.UniqueScratch)
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/adbmcp.log", cfg.Logging.File)
}

func TestEnvOverrides_BadBoolIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADBMCP_UNIQUE_SCRATCH", "sometimes")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	assert.True(t, cfg.ADB.UniqueScratch)
}

func TestGetExecutionTimeout_Fallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Execution.DefaultTimeout = "soon"
	assert.Equal(t, 60*time.Second, cfg.GetExecutionTimeout())

	cfg.Execution.DefaultTimeout = "-1s"
	assert.Equal(t, 60*time.Second, cfg.GetExecutionTimeout())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty adb path", func(c *Config) { c.ADB.Path = " " }, "adb.path"},
		{"relative scratch dir", func(c *Config) { c.ADB.ScratchDir = "sdcard" }, "scratch_dir"},
		{"negative concurrency", func(c *Config) { c.ADB.MaxConcurrent = -2 }, "max_concurrent"},
		{"bad timeout", func(c *Config) { c.Execution.DefaultTimeout = "forever" }, "default_timeout"},
		{"unknown transport", func(c *Config) { c.Server.Transport = "sse" }, "server.transport"},
		{"http without address", func(c *Config) {
			c.Server.Transport = "http"
			c.Server.Address = ""
		}, "server.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ADBMCP_TEST_SERIAL=from-dotenv\nADBMCP_TEST_KEEP=file\n"), 0644))

	t.Setenv("ADBMCP_TEST_SERIAL", "")
	os.Unsetenv("ADBMCP_TEST_SERIAL")
	t.Setenv("ADBMCP_TEST_KEEP", "process")

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "missing.env"), envPath))
	t.Cleanup(func() { os.Unsetenv("ADBMCP_TEST_SERIAL") })

	assert.Equal(t, "from-dotenv", os.Getenv("ADBMCP_TEST_SERIAL"))
	assert.Equal(t, "process", os.Getenv("ADBMCP_TEST_KEEP"), "existing variables win")
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "adbmcp.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c })
	require.NoError(t, err)
	w.debounceDur = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	updated := DefaultConfig()
	updated.Logging.Level = "debug"
	require.NoError(t, updated.Save(path))

	select {
	case cfg := <-changes:
		assert.Equal(t, "debug", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestWatcher_IgnoresInvalidReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "adbmcp.yaml")
	require.NoError(t, DefaultConfig().Save(path))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c })
	require.NoError(t, err)
	w.debounceDur = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: carrier-pigeon\n"), 0644))

	select {
	case cfg := <-changes:
		t.Fatalf("unexpected reload: %+v", cfg.Server)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_SkipsReloadWhileFileMissing(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "adbmcp.yaml")
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Save(path))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c })
	require.NoError(t, err)
	w.debounceDur = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Editors that save by renaming leave a window with no file at path.
	require.NoError(t, os.Rename(path, path+".swp"))

	select {
	case c := <-changes:
		t.Fatalf("defaults applied for a missing file: level=%s", c.Logging.Level)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_ReloadMissingFileKeepsSettings(t *testing.T) {
	clearEnv(t)
	called := false
	w, err := NewWatcher(filepath.Join(t.TempDir(), "adbmcp.yaml"), func(*Config) { called = true })
	require.NoError(t, err)
	defer w.Stop()

	w.reload()
	assert.False(t, called)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "adbmcp.yaml"), nil)
	require.NoError(t, err)
	w.Stop()
}
