package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/msecompare/internal/metric"
)

var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "msecompare version %s (ssd kernel: %s)\n", version, metric.ActiveKernel)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
