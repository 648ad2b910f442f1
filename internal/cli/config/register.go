// Package config provides CLI commands for dbt-cli-mcp configuration management.
// Includes: config, configure, doctor
package config

import (
	"github.com/spf13/cobra"
)

// Register adds all configuration commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(doctorCmd)
}
