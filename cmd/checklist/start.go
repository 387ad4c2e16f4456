package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/checklist/internal/cli"
	"github.com/aretw0/checklist/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [file]",
	Short: "Publish a checklist to the running skill",
	Long: `Reads a checklist file (YAML or JSON; stdin when omitted or "-") and publishes it on
rhasspy/checklist/start. With --wait, blocks until the checklist's report is published.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger := loadConfig(cmd)
		wait, _ := cmd.Flags().GetBool("wait")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		siteID, _ := cmd.Flags().GetString("site-id")
		format, _ := cmd.Flags().GetString("format")

		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		req, err := cli.ReadChecklist(path, os.Stdin, cli.ReadOptions{GenerateID: true, SiteID: siteID})
		if err != nil {
			fail("Invalid checklist: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		transport, err := cli.OpenTransport(ctx, cfg, logger)
		if err != nil {
			fail("Error connecting: %v", err)
		}
		defer transport.Close()

		report, err := cli.StartChecklist(ctx, transport.Bus, *req, cli.StartOptions{Wait: wait, Timeout: timeout})
		if err != nil {
			_ = transport.Close()
			fail("Error starting checklist: %v", err)
		}
		if report == nil {
			fmt.Printf("Checklist %q published.\n", req.ID)
			return
		}
		if err := cli.PrintReport(os.Stdout, *report, format, tui.RendererFor(os.Stdout)); err != nil {
			_ = transport.Close()
			fail("Error printing report: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	startCmd.Flags().BoolP("wait", "w", false, "Wait for the finished report")
	startCmd.Flags().Duration("timeout", 0, "Give up waiting after this long (0 waits forever)")
	startCmd.Flags().String("site-id", "", "Override the checklist's siteId")
	startCmd.Flags().StringP("format", "f", cli.OutputText, "Report format: text or json")
}
