// Package server wires the device tools into an MCP server and runs it over
// stdio or streamable HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dracxi/adbmcpserver/internal/config"
	"github.com/dracxi/adbmcpserver/internal/logging"
	"github.com/dracxi/adbmcpserver/internal/tools"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// EndpointPath is where the HTTP transport serves MCP.
const EndpointPath = "/mcp"

const shutdownTimeout = 5 * time.Second

// New creates the MCP server with every tool in reg registered.
func New(cfg config.ServerConfig, reg *tools.Registry) *server.MCPServer {
	s := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks()),
		server.WithInstructions(serverInstructions()),
	)

	for _, t := range reg.All() {
		s.AddTool(t.Definition(), t.Handle)
	}
	logging.Server("Registered %d tools", reg.Count())
	return s
}

func hooks() *server.Hooks {
	h := &server.Hooks{}
	h.AddBeforeCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest) {
		logging.Get(logging.CategoryServer).With("request_id", fmt.Sprint(id)).
			Debug("tools/call %s", req.Params.Name)
	})
	h.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, result *mcp.CallToolResult) {
		if result != nil && result.IsError {
			logging.Get(logging.CategoryServer).With("request_id", fmt.Sprint(id)).
				Warn("tools/call %s returned an error result", req.Params.Name)
		}
	})
	h.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logging.ServerError("%s failed: %v", method, err)
	})
	return h
}

// Serve runs s on the configured transport until ctx is done.
func Serve(ctx context.Context, cfg config.ServerConfig, s *server.MCPServer) error {
	switch cfg.Transport {
	case "http":
		return ServeHTTP(ctx, cfg.Address, s)
	case "", "stdio":
		return ServeStdio(ctx, s, os.Stdin, os.Stdout)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// ServeStdio speaks MCP over in/out. Protocol diagnostics go to the zap logger,
// never to out.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(zap.NewStdLog(logging.Root().Named("stdio")))

	logging.Server("Serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// ServeHTTP serves MCP at EndpointPath on addr and shuts down when ctx ends.
func ServeHTTP(ctx context.Context, addr string, s *server.MCPServer) error {
	httpSrv := &http.Server{Addr: addr, ReadHeaderTimeout: 10 * time.Second}
	h := server.NewStreamableHTTPServer(s,
		server.WithEndpointPath(EndpointPath),
		server.WithStreamableHTTPServer(httpSrv),
	)
	mux := http.NewServeMux()
	mux.Handle(EndpointPath, h)
	httpSrv.Handler = mux

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Start(addr)
	}()
	logging.Server("Serving MCP over HTTP at http://%s%s", addr, EndpointPath)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http transport: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http transport: %w", err)
	}
	logging.Server("HTTP transport stopped")
	return nil
}

func serverInstructions() string {
	return `This server drives an Android device through adb.

## Typical loop

1. get_devices to see what is attached. Pass the serial as device_serial when
   more than one device is connected.
2. get_uilayout to read the screen. Each element lists its text, description,
   resource id, bounds and a Center point.
3. touch at an element's Center, swipe to scroll, input_text to type into the
   focused field.
4. get_uilayout again to confirm the result.

## Notes

- launch_app starts an app by package; pass activity for a specific screen.
  Use get_packages to discover package names.
- take_screenshot writes a PNG on the machine running this server.
- execute_adb_shell_command splits the command on whitespace and does not
  interpret shell quoting.
- Failures come back as tool errors starting with "Error:" (adb exited
  non-zero) or "Unexpected Error:" (anything else).`
}
