package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/intentflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the bots in the save directory as MCP tools, so AI agents can
read and edit intent graphs.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		bot, _ := cmd.Flags().GetString("bot")

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := ws.SaveAll(cmd.Context()); err != nil {
				logger.Error("failed to save bots", "err", err)
			}
			ws.Close()
		}()

		srv := mcp.NewServer(ws, bot, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
			logger.Info("starting intentflow MCP server (stdio)", "bot", bot)
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, cfg.Addr)
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("bot", "default", "Bot that tools act on when none is named")
}
