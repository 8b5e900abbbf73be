package tools

import (
	"context"
	"fmt"

	"github.com/dracxi/adbmcpserver/internal/device"
	"github.com/dracxi/adbmcpserver/internal/hierarchy"

	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultScreenshotFile is used when take_screenshot gets no filename.
const DefaultScreenshotFile = "screenshot.png"

// ScreenshotTool captures the screen to a local PNG.
type ScreenshotTool struct {
	ctrl device.Controller
}

// NewScreenshotTool creates a ScreenshotTool.
func NewScreenshotTool(ctrl device.Controller) *ScreenshotTool {
	return &ScreenshotTool{ctrl: ctrl}
}

func (t *ScreenshotTool) Definition() mcp.Tool {
	return mcp.NewTool("take_screenshot",
		mcp.WithDescription("Capture the current screen and save it to a local PNG file."),
		mcp.WithString("filename",
			mcp.Description("Local path of the PNG to write"),
			mcp.DefaultString(DefaultScreenshotFile),
		),
		withSerial(),
	)
}

func (t *ScreenshotTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename := req.GetString("filename", "")
	if filename == "" {
		filename = DefaultScreenshotFile
	}

	path, err := t.ctrl.Screenshot(ctx, serialOf(req), filename)
	if err != nil {
		return failure("take_screenshot", err), nil
	}
	return success("take_screenshot", "Screenshot saved to: "+path), nil
}

// UILayoutTool dumps the UI hierarchy and reports the elements an agent can
// act on.
type UILayoutTool struct {
	ctrl device.Controller
}

// NewUILayoutTool creates a UILayoutTool.
func NewUILayoutTool(ctrl device.Controller) *UILayoutTool {
	return &UILayoutTool{ctrl: ctrl}
}

func (t *UILayoutTool) Definition() mcp.Tool {
	return mcp.NewTool("get_uilayout",
		mcp.WithDescription("Dump the current UI hierarchy and extract all meaningful elements "+
			"(those with text, a content description or a resource id), with bounds and tap centers."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum("text", "json"),
			mcp.DefaultString("text"),
		),
		mcp.WithBoolean("include_all",
			mcp.Description("With format=json, include elements that carry no text, description or resource id"),
			mcp.DefaultBool(false),
		),
		withSerial(),
	)
}

func (t *UILayoutTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := req.GetString("format", "text")
	if format != "text" && format != "json" {
		return badRequest("get_uilayout", fmt.Errorf("unsupported format %q (use text or json)", format)), nil
	}

	elements, err := t.ctrl.UIElements(ctx, serialOf(req))
	if err != nil {
		return failure("get_uilayout", err), nil
	}

	if format == "json" {
		out, err := hierarchy.ReportJSON(elements, req.GetBool("include_all", false))
		if err != nil {
			return failure("get_uilayout", err), nil
		}
		return success("get_uilayout", out), nil
	}
	return success("get_uilayout", hierarchy.Report(elements)), nil
}
