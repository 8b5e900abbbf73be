// Package tools exposes device operations as MCP tools. Each tool is a small
// struct with a Definition (name, description, parameter schema) and a Handle
// method that validates arguments, calls the device.Controller and turns the
// outcome into a tool result.
//
// Device failures are returned as error results, never as Go errors, so a
// failing adb call does not tear down the protocol session.
package tools

import (
	"context"

	"github.com/dracxi/adbmcpserver/internal/device"
	"github.com/dracxi/adbmcpserver/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is an MCP tool backed by a device operation.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

const serialParam = "device_serial"

// Defaults returns every device tool over ctrl, in registration order.
func Defaults(ctrl device.Controller) []Tool {
	return []Tool{
		NewPackagesTool(ctrl),
		NewShellTool(ctrl),
		NewScreenshotTool(ctrl),
		NewUILayoutTool(ctrl),
		NewTouchTool(ctrl),
		NewSwipeTool(ctrl),
		NewLaunchAppTool(ctrl),
		NewStopAppTool(ctrl),
		NewInputTextTool(ctrl),
		NewDevicesTool(ctrl),
		NewDeviceInfoTool(ctrl),
	}
}

func withSerial() mcp.ToolOption {
	return mcp.WithString(serialParam,
		mcp.Description("Serial of the target device (see get_devices). Defaults to the configured or only attached device."),
	)
}

func serialOf(req mcp.CallToolRequest) string {
	return req.GetString(serialParam, "")
}

// failure converts a device error into a tool error result.
func failure(tool string, err error) *mcp.CallToolResult {
	log := logging.Get(logging.CategoryTools).With("tool", tool)
	if kind := device.KindOf(err); kind != "" {
		log.Warn("%s failed (%s): %v", tool, kind, err)
	} else {
		log.Warn("%s failed: %v", tool, err)
	}
	return mcp.NewToolResultError(err.Error())
}

// badRequest reports invalid arguments.
func badRequest(tool string, err error) *mcp.CallToolResult {
	logging.ToolsDebug("%s: invalid arguments: %v", tool, err)
	return mcp.NewToolResultError(err.Error())
}

func success(tool, text string) *mcp.CallToolResult {
	logging.ToolsDebug("%s succeeded (%d bytes)", tool, len(text))
	return mcp.NewToolResultText(text)
}
