package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dracxi/adbmcpserver/internal/config"
	"github.com/dracxi/adbmcpserver/internal/logging"
	"github.com/dracxi/adbmcpserver/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var transport, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the device tools over MCP",
		Long: `Serves the device tools to an MCP client.

Transports:
  stdio  JSON-RPC over stdin/stdout (default). Logs go to stderr.
  http   Streamable HTTP at http://<addr>/mcp

Example:
  adbmcp serve
  adbmcp serve --transport http --addr 127.0.0.1:8765`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), transport, addr)
		},
	}
	cmd.Flags().StringVarP(&transport, "transport", "t", "", "Transport: stdio or http (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address for the http transport")
	return cmd
}

func (a *app) serve(parent context.Context, transport, addr string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg.Server
	if transport != "" {
		cfg.Transport = strings.ToLower(transport)
	}
	if addr != "" {
		cfg.Address = addr
	}

	a.checkADB(ctx)

	if a.configPath != "" {
		w, err := config.Watch(ctx, a.configPath, a.applyReloaded)
		if err != nil {
			logging.ConfigWarn("Config watch disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	s := server.New(cfg, a.registry())
	return server.Serve(ctx, cfg, s)
}

// applyReloaded applies the settings that can change without a restart.
// Environment overrides are already part of cfg because Load applies them;
// flag overrides are laid on top here.
func (a *app) applyReloaded(cfg *config.Config) {
	a.applyFlags(cfg)
	if err := logging.SetLevel(cfg.Logging.Level); err != nil {
		logging.ConfigWarn("Ignoring reloaded log level: %v", err)
	}
	logging.SetCategories(cfg.Logging.Categories)
	logging.Config("Applied reloaded logging settings (level=%s); adb and server settings take effect on restart", cfg.Logging.Level)
}
