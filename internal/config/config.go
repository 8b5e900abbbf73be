package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all adbmcp configuration.
type Config struct {
	// ADB bridge settings
	ADB ADBConfig `yaml:"adb"`

	// Execution settings for the process runner
	Execution ExecutionConfig `yaml:"execution"`

	// Protocol server settings
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ADBConfig configures the adb executable and the remote scratch area.
type ADBConfig struct {
	// Path to the adb binary; a bare name is resolved through PATH.
	Path string `yaml:"path"`

	// Default device serial. Empty lets adb pick the only attached device.
	Serial string `yaml:"serial"`

	// Remote directory for screenshot and dump scratch files.
	ScratchDir string `yaml:"scratch_dir"`

	// UniqueScratch generates a per-call remote file and removes it afterwards.
	// When false the fixed paths /sdcard/mcp_screenshot.png and /sdcard/view.xml are reused.
	UniqueScratch bool `yaml:"unique_scratch"`

	// MaxConcurrent bounds simultaneous adb invocations.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// ExecutionConfig configures the tactile interface.
type ExecutionConfig struct {
	// Default timeout for a single adb invocation
	DefaultTimeout string `yaml:"default_timeout"`

	// Cap on captured stdout/stderr per invocation
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// Environment variables to pass through to adb
	AllowedEnvVars []string `yaml:"allowed_env_vars"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // stdio, http
	Address   string `yaml:"address"`   // listen address for http
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// Transports lists the supported server transports.
var Transports = []string{"stdio", "http"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ADB: ADBConfig{
			Path:          "adb",
			ScratchDir:    "/sdcard",
			UniqueScratch: true,
			MaxConcurrent: 1,
		},

		Execution: ExecutionConfig{
			DefaultTimeout: "60s",
			MaxOutputBytes: 32 * 1024 * 1024,
			AllowedEnvVars: []string{
				"PATH", "HOME", "USER", "LANG", "LC_ALL", "TMPDIR",
				"ANDROID_HOME", "ANDROID_SDK_ROOT", "ANDROID_SERIAL",
				"ANDROID_ADB_SERVER_PORT", "ANDROID_ADB_SERVER_ADDRESS", "ADB_SERVER_SOCKET",
				"ADB_VENDOR_KEYS", "ADB_TRACE",
			},
		},

		Server: ServerConfig{
			Name:      "ADB",
			Version:   "1.0.0",
			Transport: "stdio",
			Address:   "127.0.0.1:8765",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// Use defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// LoadEnvFiles loads KEY=VALUE files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat env file %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ADBMCP_ADB_PATH"); v != "" {
		c.ADB.Path = v
	}
	if v := os.Getenv("ANDROID_SERIAL"); v != "" {
		c.ADB.Serial = v
	}
	if v := os.Getenv("ADBMCP_SCRATCH_DIR"); v != "" {
		c.ADB.ScratchDir = v
	}
	if v := os.Getenv("ADBMCP_UNIQUE_SCRATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ADB.UniqueScratch = b
		}
	}
	if v := os.Getenv("ADBMCP_TIMEOUT"); v != "" {
		c.Execution.DefaultTimeout = v
	}
	if v := os.Getenv("ADBMCP_TRANSPORT"); v != "" {
		c.Server.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("ADBMCP_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("ADBMCP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ADBMCP_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// GetExecutionTimeout returns the default execution timeout as a duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetMaxConcurrent returns the adb concurrency bound, at least 1.
func (c *Config) GetMaxConcurrent() int64 {
	if c.ADB.MaxConcurrent < 1 {
		return 1
	}
	return int64(c.ADB.MaxConcurrent)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ADB.Path) == "" {
		return fmt.Errorf("adb.path must not be empty")
	}
	if !strings.HasPrefix(c.ADB.ScratchDir, "/") {
		return fmt.Errorf("adb.scratch_dir must be an absolute device path, got %q", c.ADB.ScratchDir)
	}
	if c.ADB.MaxConcurrent < 0 {
		return fmt.Errorf("adb.max_concurrent must not be negative")
	}
	if d, err := time.ParseDuration(c.Execution.DefaultTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid execution.default_timeout %q", c.Execution.DefaultTimeout)
	}

	validTransport := false
	for _, t := range Transports {
		if c.Server.Transport == t {
			validTransport = true
			break
		}
	}
	if !validTransport {
		return fmt.Errorf("invalid server.transport: %s (valid: %v)", c.Server.Transport, Transports)
	}
	if c.Server.Transport == "http" && c.Server.Address == "" {
		return fmt.Errorf("server.address is required for the http transport")
	}

	return nil
}
