package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthchat/hearth/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		fmt.Println("Configuration valid")
		fmt.Printf("  Completion endpoint: %s\n", cfg.Completion.Endpoint)
		fmt.Printf("  Admin auth mode:     %s\n", cfg.Admin.AuthMode)
		fmt.Printf("  Partner allowlist:   %d codes\n", len(cfg.Partners.Allowlist))
		fmt.Printf("  Database:            %s\n", cfg.Database.DSN)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
