package main

import (
	"os"

	"github.com/aretw0/checklist/internal/cli"
	"github.com/aretw0/checklist/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a checklist file",
	Long: `Decodes a checklist file exactly as the skill would and reports items that can
never advance or whose intents shadow each other.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		strict, _ := cmd.Flags().GetBool("strict")

		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		req, err := cli.ReadChecklist(path, os.Stdin, cli.ReadOptions{})
		if err != nil {
			fail("Validation failed: %v", err)
		}

		if err := cli.Validate(os.Stdout, req, cli.ValidateOptions{
			Format: format,
			Strict: strict,
			Render: tui.RendererFor(os.Stdout),
		}); err != nil {
			fail("Validation failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("format", "f", cli.OutputText, "Output format: text, json or mermaid")
	validateCmd.Flags().Bool("strict", false, "Fail when there are warnings")
}
