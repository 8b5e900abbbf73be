package device

import (
	"context"
	"strings"

	"github.com/dracxi/adbmcpserver/internal/logging"
)

// DumpMarker is what uiautomator prints after a successful dump. The
// misspelling is Android's.
const DumpMarker = "UI hierchary dumped to:"

// DumpHierarchy returns the raw uiautomator dump for the current screen.
//
// It first asks uiautomator to write to /dev/tty, which needs no scratch file.
// Devices that do not support that form get a dump to a remote file which is
// then read back with cat. The first failing step of the fallback is returned.
func (a *ADB) DumpHierarchy(ctx context.Context, serial string) (string, error) {
	timer := logging.StartTimer(logging.CategoryDevice, "UI dump")
	defer timer.Stop()

	out, err := a.bridge.Run(ctx, serial, "shell", "uiautomator", "dump", "/dev/tty")
	if err == nil && LooksLikeDump(out) {
		return out, nil
	}
	if err != nil {
		logging.DeviceDebug("Direct UI dump failed, using file fallback: %v", err)
	} else {
		logging.DeviceDebug("Direct UI dump returned %d bytes without a dump, using file fallback", len(out))
	}

	remote, cleanup := a.scratch.DumpPath()
	if cleanup {
		defer a.removeRemote(ctx, serial, remote)
	}

	if _, err := a.bridge.Run(ctx, serial, "shell", "uiautomator", "dump", remote); err != nil {
		return "", err
	}
	return a.bridge.Run(ctx, serial, "shell", "cat", remote)
}

// LooksLikeDump reports whether direct dump output can be used as is.
func LooksLikeDump(out string) bool {
	return strings.Contains(out, DumpMarker) || strings.HasPrefix(strings.TrimSpace(out), "<?xml")
}
