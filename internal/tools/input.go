package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/dracxi/adbmcpserver/internal/device"

	"github.com/mark3labs/mcp-go/mcp"
)

// TouchTool taps the screen.
type TouchTool struct {
	ctrl device.Controller
}

// NewTouchTool creates a TouchTool.
func NewTouchTool(ctrl device.Controller) *TouchTool {
	return &TouchTool{ctrl: ctrl}
}

func (t *TouchTool) Definition() mcp.Tool {
	return mcp.NewTool("touch",
		mcp.WithDescription("Simulate a finger tap at screen coordinates (pixels). Use the Center of an element from get_uilayout."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("X coordinate")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Y coordinate")),
		withSerial(),
	)
}

func (t *TouchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coords, err := requireInts(req, "x", "y")
	if err != nil {
		return badRequest("touch", err), nil
	}
	x, y := coords[0], coords[1]

	if err := t.ctrl.Tap(ctx, serialOf(req), x, y); err != nil {
		return failure("touch", err), nil
	}
	return success("touch", fmt.Sprintf("Touch at (%d, %d)", x, y)), nil
}

// SwipeTool performs a swipe gesture.
type SwipeTool struct {
	ctrl device.Controller
}

// NewSwipeTool creates a SwipeTool.
func NewSwipeTool(ctrl device.Controller) *SwipeTool {
	return &SwipeTool{ctrl: ctrl}
}

func (t *SwipeTool) Definition() mcp.Tool {
	return mcp.NewTool("swipe",
		mcp.WithDescription("Simulate a swipe gesture from (x1, y1) to (x2, y2)."),
		mcp.WithNumber("x1", mcp.Required(), mcp.Description("Start X coordinate")),
		mcp.WithNumber("y1", mcp.Required(), mcp.Description("Start Y coordinate")),
		mcp.WithNumber("x2", mcp.Required(), mcp.Description("End X coordinate")),
		mcp.WithNumber("y2", mcp.Required(), mcp.Description("End Y coordinate")),
		mcp.WithNumber("duration_ms",
			mcp.Description("Gesture duration in milliseconds"),
			mcp.DefaultNumber(device.DefaultSwipeDuration),
			mcp.Min(1),
		),
		withSerial(),
	)
}

func (t *SwipeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := requireInts(req, "x1", "y1", "x2", "y2")
	if err != nil {
		return badRequest("swipe", err), nil
	}
	if err := integral(req, "duration_ms"); err != nil {
		return badRequest("swipe", err), nil
	}
	duration := req.GetInt("duration_ms", device.DefaultSwipeDuration)

	if err := t.ctrl.Swipe(ctx, serialOf(req), c[0], c[1], c[2], c[3], duration); err != nil {
		return failure("swipe", err), nil
	}
	return success("swipe", fmt.Sprintf("Swipe from (%d, %d) to (%d, %d)", c[0], c[1], c[2], c[3])), nil
}

// InputTextTool types into the focused field.
type InputTextTool struct {
	ctrl device.Controller
}

// NewInputTextTool creates an InputTextTool.
func NewInputTextTool(ctrl device.Controller) *InputTextTool {
	return &InputTextTool{ctrl: ctrl}
}

func (t *InputTextTool) Definition() mcp.Tool {
	return mcp.NewTool("input_text",
		mcp.WithDescription("Type text into the focused field."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
		withSerial(),
	)
}

func (t *InputTextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return badRequest("input_text", err), nil
	}

	if err := t.ctrl.InputText(ctx, serialOf(req), text); err != nil {
		return failure("input_text", err), nil
	}
	return success("input_text", "Typed: "+text), nil
}

func requireInts(req mcp.CallToolRequest, keys ...string) ([]int, error) {
	out := make([]int, len(keys))
	for i, k := range keys {
		v, err := req.RequireInt(k)
		if err != nil {
			return nil, err
		}
		if err := integral(req, k); err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// integral rejects a JSON number with a fractional part. RequireInt and
// GetInt would truncate it.
func integral(req mcp.CallToolRequest, key string) error {
	if f, ok := req.GetArguments()[key].(float64); ok && f != math.Trunc(f) {
		return fmt.Errorf("argument %q must be an integer, got %v", key, f)
	}
	return nil
}
