package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthchat/hearth/bootstrap"
	"github.com/hearthchat/hearth/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the support chat server",
	Long: `Start the hearth server.

The server will:
  - Load configuration from hearth.yaml (or --config)
  - Or load configuration from HEARTH_* environment variables
  - Open the events database and apply migrations
  - Serve the chat API, the admin reporting API, and the dashboard

Environment variables (for Docker deployments):
  HEARTH_COMPLETION_ENDPOINT - Upstream completion URL (required)
  HEARTH_COMPLETION_API_KEY  - Upstream API key
  HEARTH_DATABASE_DSN        - Database path (default: hearth.db)
  HEARTH_SERVER_PORT         - Server port (default: 8080)
  HEARTH_ADMIN_AUTH_MODE     - Admin auth: disabled or shared_secret
  HEARTH_ADMIN_TOKEN         - Admin shared secret
  HEARTH_PARTNER_ALLOWLIST   - Comma-separated partner codes
  HEARTH_LOG_LEVEL           - Log level: debug, info, warn, error

Examples:
  hearth serve
  hearth serve --config /etc/hearth/config.yaml

  # Docker (env vars only):
  HEARTH_COMPLETION_ENDPOINT=https://llm.example.com/v1/chat hearth serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s\n", cfgFile)
		fmt.Println("Option 2: Set HEARTH_COMPLETION_ENDPOINT environment variable")
		fmt.Println()
		fmt.Println("Example (env vars):")
		fmt.Println("  HEARTH_COMPLETION_ENDPOINT=https://llm.example.com/v1/chat hearth serve")
		return nil
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if !hasConfigFile {
		fmt.Println("Running with environment variables (no config file)")
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
