package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/checklist"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of checklist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("checklist version %s\n", strings.TrimSpace(checklist.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
