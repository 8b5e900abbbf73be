package tools

import (
	"context"
	"strings"

	"github.com/dracxi/adbmcpserver/internal/device"

	"github.com/mark3labs/mcp-go/mcp"
)

// PackagesTool lists installed packages.
type PackagesTool struct {
	ctrl device.Controller
}

// NewPackagesTool creates a PackagesTool.
func NewPackagesTool(ctrl device.Controller) *PackagesTool {
	return &PackagesTool{ctrl: ctrl}
}

func (t *PackagesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_packages",
		mcp.WithDescription("Retrieve a list of all installed packages, one per line."),
		mcp.WithReadOnlyHintAnnotation(true),
		withSerial(),
	)
}

func (t *PackagesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkgs, err := t.ctrl.Packages(ctx, serialOf(req))
	if err != nil {
		return failure("get_packages", err), nil
	}
	return success("get_packages", strings.Join(pkgs, "\n")), nil
}

// ShellTool runs an arbitrary device shell command.
type ShellTool struct {
	ctrl device.Controller
}

// NewShellTool creates a ShellTool.
func NewShellTool(ctrl device.Controller) *ShellTool {
	return &ShellTool{ctrl: ctrl}
}

func (t *ShellTool) Definition() mcp.Tool {
	return mcp.NewTool("execute_adb_shell_command",
		mcp.WithDescription("Execute an arbitrary shell command on the device and return its output. "+
			"A leading \"adb shell \" or \"adb \" is ignored. Arguments are split on whitespace; no shell quoting is applied."),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command line to run, e.g. \"dumpsys battery\""),
		),
		withSerial(),
	)
}

func (t *ShellTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := req.RequireString("command")
	if err != nil {
		return badRequest("execute_adb_shell_command", err), nil
	}

	out, err := t.ctrl.Shell(ctx, serialOf(req), command)
	if err != nil {
		return failure("execute_adb_shell_command", err), nil
	}
	return success("execute_adb_shell_command", out), nil
}
