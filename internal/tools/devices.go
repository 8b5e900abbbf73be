package tools

import (
	"context"
	"strings"

	"github.com/dracxi/adbmcpserver/internal/device"

	"github.com/mark3labs/mcp-go/mcp"
)

// DevicesTool lists attached devices.
type DevicesTool struct {
	ctrl device.Controller
}

// NewDevicesTool creates a DevicesTool.
func NewDevicesTool(ctrl device.Controller) *DevicesTool {
	return &DevicesTool{ctrl: ctrl}
}

func (t *DevicesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_devices",
		mcp.WithDescription("List attached devices with their state, one per line. Use the first column as device_serial."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func (t *DevicesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := t.ctrl.Devices(ctx)
	if err != nil {
		return failure("get_devices", err), nil
	}
	if len(devices) == 0 {
		return success("get_devices", "No devices attached."), nil
	}

	lines := make([]string, len(devices))
	for i, d := range devices {
		lines[i] = d.String()
	}
	return success("get_devices", strings.Join(lines, "\n")), nil
}

// DeviceInfoTool reports model, OS version and screen size.
type DeviceInfoTool struct {
	ctrl device.Controller
}

// NewDeviceInfoTool creates a DeviceInfoTool.
func NewDeviceInfoTool(ctrl device.Controller) *DeviceInfoTool {
	return &DeviceInfoTool{ctrl: ctrl}
}

func (t *DeviceInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("get_device_info",
		mcp.WithDescription("Report the device serial, model, manufacturer, Android version, SDK level and screen size."),
		mcp.WithReadOnlyHintAnnotation(true),
		withSerial(),
	)
}

func (t *DeviceInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	props, err := t.ctrl.Properties(ctx, serialOf(req))
	if err != nil {
		return failure("get_device_info", err), nil
	}
	return success("get_device_info", strings.Join(props.Lines(), "\n")), nil
}
