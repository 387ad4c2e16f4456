package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/checklist/internal/cli"
	"github.com/aretw0/checklist/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Runs the checklist skill and exposes it as an MCP Server, so AI agents can start
checklists and follow their progress as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := loadConfig(cmd)
		transportName, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Create a context that cancels on interrupt signal
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 1. Initialize Skill
		transport, err := cli.OpenTransport(ctx, cfg, logger)
		if err != nil {
			fail("Error connecting: %v", err)
		}
		defer transport.Close()

		svc, err := cli.NewService(cfg, transport, logger)
		if err != nil {
			fail("Error initializing skill: %v", err)
		}
		skillErr := make(chan error, 1)
		go func() { skillErr <- svc.Skill.Run(ctx) }()

		// 2. Initialize MCP Server Adapter
		srv := mcp.NewServer(svc.Skill, mcp.WithLogger(logger))

		// 3. Start Server based on Transport
		switch transportName {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting Checklist MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting Checklist MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				logger.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
			logger.Info("MCP Server stopped gracefully")
		default:
			fail("Unknown transport: %s. Supported: stdio, sse", transportName)
		}

		stop()
		if err := <-skillErr; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("skill stopped", "err", err)
		}
		svc.Wait()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
