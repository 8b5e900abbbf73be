package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

// =============================================================================
// DIRECT ACTION COMMANDS - one per MCP tool, for use from a terminal
// =============================================================================

func newDirectCmds(a *app) []*cobra.Command {
	var jsonOut, includeAll bool
	var duration int

	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Print the meaningful elements of the current screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := "text"
			if jsonOut {
				format = "json"
			}
			return a.runTool(cmd, "get_uilayout", map[string]any{"format": format, "include_all": includeAll})
		},
	}
	uiCmd.Flags().BoolVar(&jsonOut, "json", false, "Print elements as JSON")
	uiCmd.Flags().BoolVar(&includeAll, "all", false, "With --json, include elements without text, description or id")

	swipeCmd := &cobra.Command{
		Use:   "swipe <x1> <y1> <x2> <y2>",
		Short: "Swipe between two points",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := atois(args)
			if err != nil {
				return err
			}
			return a.runTool(cmd, "swipe", map[string]any{
				"x1": c[0], "y1": c[1], "x2": c[2], "y2": c[3], "duration_ms": duration,
			})
		},
	}
	swipeCmd.Flags().IntVarP(&duration, "duration", "d", 500, "Gesture duration in milliseconds")

	return []*cobra.Command{
		{
			Use:   "packages",
			Short: "List installed packages",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runTool(cmd, "get_packages", nil)
			},
		},
		{
			Use:   "shell <command...>",
			Short: "Run a shell command on the device",
			Example: `  adbmcp shell dumpsys battery
  adbmcp shell -- ls -l /sdcard`,
			Args: cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runTool(cmd, "execute_adb_shell_command", map[string]any{"command": strings.Join(args, " ")})
			},
		},
		{
			Use:   "screenshot [filename]",
			Short: "Save a screenshot to a local PNG",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				toolArgs := map[string]any{}
				if len(args) == 1 {
					toolArgs["filename"] = args[0]
				}
				return a.runTool(cmd, "take_screenshot", toolArgs)
			},
		},
		uiCmd,
		{
			Use:   "tap <x> <y>",
			Short: "Tap at screen coordinates",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := atois(args)
				if err != nil {
					return err
				}
				return a.runTool(cmd, "touch", map[string]any{"x": c[0], "y": c[1]})
			},
		},
		swipeCmd,
		{
			Use:   "launch <package> [activity]",
			Short: "Launch an app or activity",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				toolArgs := map[string]any{"package_name": args[0]}
				if len(args) == 2 {
					toolArgs["activity"] = args[1]
				}
				return a.runTool(cmd, "launch_app", toolArgs)
			},
		},
		{
			Use:   "stop <package>",
			Short: "Force stop an app",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runTool(cmd, "stop_app", map[string]any{"package_name": args[0]})
			},
		},
		{
			Use:   "type <text...>",
			Short: "Type text into the focused field",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runTool(cmd, "input_text", map[string]any{"text": strings.Join(args, " ")})
			},
		},
		{
			Use:   "devices",
			Short: "List attached devices",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runTool(cmd, "get_devices", nil)
			},
		},
		{
			Use:   "info",
			Short: "Show device model, OS version and screen size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runTool(cmd, "get_device_info", nil)
			},
		},
	}
}

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-arguments]",
		Short: "Call any tool by name with JSON arguments",
		Example: `  adbmcp call touch '{"x": 540, "y": 1200}'
  adbmcp call get_uilayout '{"format": "json"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("invalid JSON arguments: %w", err)
				}
			}
			return a.runTool(cmd, args[0], toolArgs)
		},
	}
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range a.registry().All() {
				def := t.Definition()
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", def.Name, def.Description)
			}
			return nil
		},
	}
}

// runTool executes a tool and prints its text. An error result becomes the
// command's error so the exit status reflects it.
func (a *app) runTool(cmd *cobra.Command, name string, args map[string]any) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := a.registry().Execute(ctx, name, args)
	if err != nil {
		return err
	}

	text := resultText(res)
	if res.IsError {
		return errors.New(text)
	}
	if text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
	}
	return nil
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func atois(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: must be an integer", s)
		}
		out[i] = n
	}
	return out, nil
}
