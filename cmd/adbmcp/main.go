// Command adbmcp serves Android device automation tools over the Model
// Context Protocol, and exposes the same tools as direct subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dracxi/adbmcpserver/internal/config"
	"github.com/dracxi/adbmcpserver/internal/device"
	"github.com/dracxi/adbmcpserver/internal/logging"
	"github.com/dracxi/adbmcpserver/internal/tools"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = ""

// app holds the global flag values and the configuration they resolve to.
type app struct {
	configPath string
	serial     string
	adbPath    string
	timeout    time.Duration
	verbose    bool
	envFiles   []string

	cfg  *config.Config
	ctrl *device.ADB
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "adbmcp",
		Short: "MCP server for Android device automation over adb",
		Long: `adbmcp exposes an Android device to MCP clients: list packages, run shell
commands, capture screenshots, read the UI hierarchy, tap, swipe, type and
launch or stop apps.

Run without a subcommand to serve on the configured transport (stdio by
default). Every tool is also available as a direct subcommand for testing
from a terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), "", "")
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVarP(&a.serial, "serial", "s", "", "Default device serial (overrides ANDROID_SERIAL)")
	flags.StringVar(&a.adbPath, "adb", "", "Path to the adb binary")
	flags.DurationVar(&a.timeout, "timeout", 0, "Timeout for a single adb invocation (e.g. 30s)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")

	if version != "" {
		rootCmd.Version = version
	}

	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newDirectCmds(a)...)
	rootCmd.AddCommand(newCallCmd(a), newToolsCmd(a))
	return rootCmd
}

// setup resolves configuration in order: defaults, config file, environment,
// flags. It then installs the logger.
func (a *app) setup() error {
	if err := config.LoadEnvFiles(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.ctrl = device.New(cfg)
	logging.BootDebug("Configuration resolved: adb=%s serial=%q transport=%s timeout=%s",
		cfg.ADB.Path, cfg.ADB.Serial, cfg.Server.Transport, cfg.Execution.DefaultTimeout)
	return nil
}

// applyFlags overlays the command-line flags on cfg. It runs at startup and
// again for every reloaded config, so flags keep winning over the file.
func (a *app) applyFlags(cfg *config.Config) {
	if a.serial != "" {
		cfg.ADB.Serial = a.serial
	}
	if a.adbPath != "" {
		cfg.ADB.Path = a.adbPath
	}
	if a.timeout > 0 {
		cfg.Execution.DefaultTimeout = a.timeout.String()
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
}

func (a *app) registry() *tools.Registry {
	return tools.NewDeviceRegistry(a.ctrl)
}

// checkADB logs the adb version, or a warning when adb cannot be run. The
// server still starts; tool calls report the failure to the client.
func (a *app) checkADB(ctx context.Context) {
	logging.BootDebug("PATH=%s", os.Getenv("PATH"))

	out, err := a.ctrl.Bridge().Version(ctx)
	if err != nil {
		logging.BootWarn("adb is not usable (%s): %v", a.ctrl.Bridge().ADBPath(), err)
		return
	}
	first, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	logging.BootDebug("adb --version: %s", first)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
