package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lifelens/lifelens-cli/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List built-in demo scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range scenario.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
