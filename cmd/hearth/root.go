package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Support chat backend with partner attribution and usage reporting",
	Long: `Hearth is a self-hosted support chat backend.

It proxies chat messages to an upstream completion service, records
anonymized usage events, and serves an admin reporting API and dashboard.

Quick start:
  hearth serve      # Start the server
  hearth validate   # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "hearth.yaml", "config file path")
}
