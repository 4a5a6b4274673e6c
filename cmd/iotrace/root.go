package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iotrace",
	Short: "Traced file I/O service for exploring OpenTelemetry traces.",
	Long: `iotrace serves an endpoint that runs a traced sequence of file operations ` +
		`(generate, write, read, verify, delete) and exports the spans to a trace backend. ` +
		`The loadtest command drives that endpoint with concurrent virtual users.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
