package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for govkernelctl.
var rootCmd = &cobra.Command{
	Use:   "govkernelctl",
	Short: "Inspect a running module governance kernel",
	Long: `govkernelctl is a read-only inspection tool for the in-process
module governance kernel: installed modules, their blue/green instances,
and invocation traffic counts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newStatsCmd())
}

// Execute runs the root command, exiting the process with a non-zero
// status on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
