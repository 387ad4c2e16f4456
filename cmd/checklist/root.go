package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/checklist/internal/cli"
	"github.com/aretw0/checklist/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Checklist is a voice checklist skill for Hermes/Rhasspy",
	Long: `Checklist reads an ordered list of items aloud through a Hermes dialogue manager
and asks the user to confirm or disconfirm each one, then publishes a report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "checklist.yaml", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadConfig reads the configuration file, then lets command-line flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fail("Error loading config: %v", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format, _ = cmd.Flags().GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		fail("Invalid config: %v", err)
	}

	logger, err := cli.NewLogger(cfg)
	if err != nil {
		fail("Error configuring logger: %v", err)
	}
	return cfg, logger
}

// fail prints a message to stderr and exits with status 1.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
