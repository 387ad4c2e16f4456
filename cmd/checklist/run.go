package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/internal/cli"
	"github.com/aretw0/checklist/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the checklist skill",
	Long: `Connects to the configured bus (MQTT, Redis or in-memory) and serves checklists
published on rhasspy/checklist/start until interrupted.

When http.addr is set, the HTTP surface (health, status, report, metrics, SSE events,
POST /checklists) is served alongside.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := loadConfig(cmd)

		if addr, _ := cmd.Flags().GetString("http"); cmd.Flags().Changed("http") {
			cfg.HTTP.Addr = addr
		}
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, checklist.Version)
		}

		// Create a context that cancels on interrupt signal
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		transport, err := cli.OpenTransport(ctx, cfg, logger)
		if err != nil {
			fail("Error connecting: %v", err)
		}
		defer func() {
			if err := transport.Close(); err != nil {
				logger.Warn("transport close failed", "err", err)
			}
		}()

		svc, err := cli.NewService(cfg, transport, logger)
		if err != nil {
			fail("Error initializing skill: %v", err)
		}

		if err := cli.Serve(ctx, cfg, svc); err != nil {
			logger.Error("skill stopped", "err", err)
			_ = transport.Close()
			os.Exit(1)
		}
		logger.Info("skill stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("http", "", "Serve the HTTP surface on this address (overrides http.addr)")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")

	// 'run' is the default when no command is given.
	rootCmd.Run = runCmd.Run
}
