package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "spyglass",
	Short: "Spyglass - observability sidecar for Workspace API traffic",
	Long: `Spyglass watches the Google Workspace API calls made by a long-running
agent process and reports on them.

It exposes:
  - Aggregate and per-tool call metrics, as JSON and Prometheus text
  - Per-API latency, error, and rate limit tracking
  - Aggregate health checks over credentials and upstream reachability`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
