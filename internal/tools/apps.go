package tools

import (
	"context"

	"github.com/dracxi/adbmcpserver/internal/device"

	"github.com/mark3labs/mcp-go/mcp"
)

// LaunchAppTool starts an app or a specific activity.
type LaunchAppTool struct {
	ctrl device.Controller
}

// NewLaunchAppTool creates a LaunchAppTool.
func NewLaunchAppTool(ctrl device.Controller) *LaunchAppTool {
	return &LaunchAppTool{ctrl: ctrl}
}

func (t *LaunchAppTool) Definition() mcp.Tool {
	return mcp.NewTool("launch_app",
		mcp.WithDescription("Launch an app or activity. Without an activity the app's launcher entry is started."),
		mcp.WithString("package_name", mcp.Required(), mcp.Description("Package name, e.g. com.android.settings")),
		mcp.WithString("activity", mcp.Description("Activity to start, e.g. .Settings")),
		withSerial(),
	)
}

func (t *LaunchAppTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package_name")
	if err != nil {
		return badRequest("launch_app", err), nil
	}

	if err := t.ctrl.Launch(ctx, serialOf(req), pkg, req.GetString("activity", "")); err != nil {
		return failure("launch_app", err), nil
	}
	return success("launch_app", "Launched "+pkg), nil
}

// StopAppTool force-stops an app.
type StopAppTool struct {
	ctrl device.Controller
}

// NewStopAppTool creates a StopAppTool.
func NewStopAppTool(ctrl device.Controller) *StopAppTool {
	return &StopAppTool{ctrl: ctrl}
}

func (t *StopAppTool) Definition() mcp.Tool {
	return mcp.NewTool("stop_app",
		mcp.WithDescription("Force stop an app."),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("package_name", mcp.Required(), mcp.Description("Package name")),
		withSerial(),
	)
}

func (t *StopAppTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package_name")
	if err != nil {
		return badRequest("stop_app", err), nil
	}

	if err := t.ctrl.Stop(ctx, serialOf(req), pkg); err != nil {
		return failure("stop_app", err), nil
	}
	return success("stop_app", "Stopped "+pkg), nil
}
