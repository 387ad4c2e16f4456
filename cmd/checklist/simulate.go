package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/checklist"
	"github.com/aretw0/checklist/internal/cli"
	"github.com/aretw0/checklist/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <file>",
	Short: "Run a checklist in the terminal",
	Long: `Runs a checklist without a voice platform: prompts are printed and answers are typed,
either as the number of a choice or as an intent name. "exit", "quit" or end of input
cancels the checklist.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, logger := loadConfig(cmd)
		headless, _ := cmd.Flags().GetBool("headless")
		format, _ := cmd.Flags().GetString("format")

		req, err := cli.ReadChecklist(args[0], nil, cli.ReadOptions{GenerateID: true})
		if err != nil {
			fail("Invalid checklist: %v", err)
		}

		render := tui.RendererFor(os.Stdout)
		if headless {
			render = nil
		} else if render != nil {
			tui.PrintBanner(os.Stdout, checklist.Version)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := cli.Simulate(ctx, *req, cli.SimulateOptions{
			Input:    os.Stdin,
			Output:   os.Stdout,
			Headless: headless,
			Render:   render,
			Logger:   logger,
			Hooks:    cli.DebugHooks(logger),
		})
		if err != nil {
			fail("Simulation failed: %v", err)
		}

		fmt.Println()
		if err := cli.PrintReport(os.Stdout, *report, format, render); err != nil {
			fail("Error printing report: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Bool("headless", false, "Plain prompts without choices or markdown rendering")
	simulateCmd.Flags().StringP("format", "f", cli.OutputText, "Report format: text or json")
}
