package main

import (
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/anon96881/PythiaEvolution/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve neuron data to agents over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools: neuron_list, neuron_checkpoints, neuron_panel, common_terms.
Resource template: pythiaevo://neurons/{model}/{id}

Logs go to stderr so stdout stays reserved for the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "pythiaevo",
				Version: version,
				App:     a.cfg,
				Logger:  a.logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()

			a.logger.Info("mcp server starting", "models", len(a.cfg.Models), "root", a.cfg.Data.Root)
			return server.Run(ctx)
		},
	}
}
