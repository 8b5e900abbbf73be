// Package device drives an Android device through the adb executable.
//
// Bridge owns process invocation and error classification; ADB builds the
// individual automation operations on top of it.
package device

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dracxi/adbmcpserver/internal/config"
	"github.com/dracxi/adbmcpserver/internal/hierarchy"
	"github.com/dracxi/adbmcpserver/internal/logging"
	"github.com/dracxi/adbmcpserver/internal/tactile"
)

// Controller is the set of device operations exposed as tools.
// An empty serial targets the default device.
type Controller interface {
	Packages(ctx context.Context, serial string) ([]string, error)
	Shell(ctx context.Context, serial, command string) (string, error)
	Screenshot(ctx context.Context, serial, filename string) (string, error)
	DumpHierarchy(ctx context.Context, serial string) (string, error)
	UIElements(ctx context.Context, serial string) ([]hierarchy.Element, error)
	Tap(ctx context.Context, serial string, x, y int) error
	Swipe(ctx context.Context, serial string, x1, y1, x2, y2, durationMs int) error
	Launch(ctx context.Context, serial, pkg, activity string) error
	Stop(ctx context.Context, serial, pkg string) error
	InputText(ctx context.Context, serial, text string) error
	Devices(ctx context.Context) ([]Device, error)
	Properties(ctx context.Context, serial string) (*Properties, error)
}

// DefaultSwipeDuration is used when a swipe does not specify one.
const DefaultSwipeDuration = 500

// ADB implements Controller with adb shell commands.
type ADB struct {
	bridge  *Bridge
	scratch Scratch
}

var _ Controller = (*ADB)(nil)

// NewADB creates a controller over bridge.
func NewADB(bridge *Bridge, scratch Scratch) *ADB {
	return &ADB{bridge: bridge, scratch: scratch}
}

// New wires a controller from configuration using the direct process executor.
func New(cfg *config.Config) *ADB {
	execCfg := tactile.DefaultExecutorConfig()
	execCfg.DefaultTimeout = cfg.GetExecutionTimeout()
	if cfg.Execution.MaxOutputBytes > 0 {
		execCfg.MaxOutputBytes = cfg.Execution.MaxOutputBytes
	}
	if len(cfg.Execution.AllowedEnvVars) > 0 {
		execCfg.AllowedEnvironment = cfg.Execution.AllowedEnvVars
	}
	execCfg.AuditCallback = logAudit

	bridge := NewBridge(tactile.NewDirectExecutorWithConfig(execCfg), BridgeConfig{
		ADBPath:       cfg.ADB.Path,
		DefaultSerial: cfg.ADB.Serial,
		Timeout:       cfg.GetExecutionTimeout(),
		MaxConcurrent: cfg.GetMaxConcurrent(),
	})
	return NewADB(bridge, Scratch{Dir: cfg.ADB.ScratchDir, Unique: cfg.ADB.UniqueScratch})
}

// Bridge returns the underlying bridge.
func (a *ADB) Bridge() *Bridge {
	return a.bridge
}

// Packages lists installed package names.
func (a *ADB) Packages(ctx context.Context, serial string) ([]string, error) {
	out, err := a.bridge.Run(ctx, serial, "shell", "pm", "list", "packages")
	if err != nil {
		return nil, err
	}
	return ParsePackages(out), nil
}

// ParsePackages extracts names from "pm list packages" output.
func ParsePackages(out string) []string {
	packages := []string{}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "package:") {
			packages = append(packages, strings.TrimSpace(strings.ReplaceAll(line, "package:", "")))
		}
	}
	return packages
}

// Shell runs a device shell command and returns its stdout.
func (a *ADB) Shell(ctx context.Context, serial, command string) (string, error) {
	args := ShellArgs(command)
	if len(args) == 1 {
		return "", newError(KindUnexpected, "shell", "shell command must not be empty")
	}
	return a.bridge.Run(ctx, serial, args...)
}

// ShellArgs turns a command line into adb arguments. A leading "adb shell "
// or "adb " is dropped and the rest is split on whitespace.
func ShellArgs(command string) []string {
	inner := command
	switch {
	case strings.HasPrefix(command, "adb shell "):
		inner = command[len("adb shell "):]
	case strings.HasPrefix(command, "adb "):
		inner = command[len("adb "):]
	}
	return append([]string{"shell"}, strings.Fields(inner)...)
}

// Screenshot captures the screen into filename on the host and returns its
// absolute path.
func (a *ADB) Screenshot(ctx context.Context, serial, filename string) (string, error) {
	local, err := filepath.Abs(filename)
	if err != nil {
		return "", newError(KindUnexpected, "pull", "invalid filename %q: %v", filename, err)
	}
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", newError(KindUnexpected, "pull", "failed to create %s: %v", filepath.Dir(local), err)
	}

	remote, cleanup := a.scratch.ScreenshotPath()
	if cleanup {
		defer a.removeRemote(ctx, serial, remote)
	}

	if _, err := a.bridge.Run(ctx, serial, "shell", "screencap", "-p", remote); err != nil {
		return "", err
	}
	if _, err := a.bridge.Run(ctx, serial, "pull", remote, local); err != nil {
		return "", err
	}

	logging.Device("Screenshot saved to %s", local)
	return local, nil
}

// UIElements dumps and parses the current UI hierarchy.
func (a *ADB) UIElements(ctx context.Context, serial string) ([]hierarchy.Element, error) {
	raw, err := a.DumpHierarchy(ctx, serial)
	if err != nil {
		return nil, err
	}
	res := hierarchy.Parse(raw)
	if res.Err != nil {
		return nil, &Error{
			Kind:    KindParseFailure,
			Op:      "uiautomator dump",
			Message: "could not parse UI hierarchy: " + res.Err.Error(),
			Err:     res.Err,
		}
	}
	return res.Elements, nil
}

// Tap injects a tap at (x, y).
func (a *ADB) Tap(ctx context.Context, serial string, x, y int) error {
	_, err := a.bridge.Run(ctx, serial, "shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Swipe injects a swipe. A non-positive duration uses DefaultSwipeDuration.
func (a *ADB) Swipe(ctx context.Context, serial string, x1, y1, x2, y2, durationMs int) error {
	if durationMs <= 0 {
		durationMs = DefaultSwipeDuration
	}
	_, err := a.bridge.Run(ctx, serial, "shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), strconv.Itoa(durationMs))
	return err
}

// Launch starts pkg. With an activity it starts that component; without one
// it fires the launcher intent through monkey.
func (a *ADB) Launch(ctx context.Context, serial, pkg, activity string) error {
	var err error
	if activity != "" {
		_, err = a.bridge.Run(ctx, serial, "shell", "am", "start", "-n", pkg+"/"+activity)
	} else {
		_, err = a.bridge.Run(ctx, serial, "shell", "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	}
	return err
}

// Stop force-stops pkg.
func (a *ADB) Stop(ctx context.Context, serial, pkg string) error {
	_, err := a.bridge.Run(ctx, serial, "shell", "am", "force-stop", pkg)
	return err
}

// InputText types text into the focused field. "input text" treats %s as a
// space, so spaces are sent that way.
func (a *ADB) InputText(ctx context.Context, serial, text string) error {
	_, err := a.bridge.Run(ctx, serial, "shell", "input", "text", EscapeInputText(text))
	return err
}

// EscapeInputText encodes spaces for "input text".
func EscapeInputText(text string) string {
	return strings.ReplaceAll(text, " ", "%s")
}

// removeRemote deletes a scratch file. Failures are logged, not returned.
func (a *ADB) removeRemote(ctx context.Context, serial, remote string) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if _, err := a.bridge.Run(ctx, serial, "shell", "rm", "-f", remote); err != nil {
		logging.DeviceWarn("Failed to remove %s: %v", remote, err)
	}
}

func logAudit(ev tactile.AuditEvent) {
	switch ev.Type {
	case tactile.AuditEventKilled, tactile.AuditEventError:
		logging.TactileWarn("%s %s (req=%s): %s", ev.Type, ev.Command.CommandString(), ev.Command.RequestID, auditReason(ev))
	default:
		logging.TactileDebug("%s %s (req=%s)", ev.Type, ev.Command.CommandString(), ev.Command.RequestID)
	}
}

func auditReason(ev tactile.AuditEvent) string {
	if ev.Result == nil {
		return ""
	}
	if ev.Result.KillReason != "" {
		return ev.Result.KillReason
	}
	return ev.Result.Error
}
