package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dbt-cli-mcp configuration",
	Long: `Manage dbt-cli-mcp configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Command-line flags (--dbt-path, --timeout, ...)
  2. Environment variables (DBT_PATH, DBT_MCP_*)
  3. Config file (--config, default ~/.config/dbt-cli-mcp/config.json)
  4. Built-in defaults`,
	Example: `  # Show current configuration
  dbt-mcp config show

  # Show configuration as JSON
  dbt-mcp config show --json

  # Set the default project directory
  dbt-mcp config set project_dir ~/analytics

  # List every key
  dbt-mcp config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current effective configuration",
	Long: `Display the current effective configuration values.

Shows the merged result of defaults, the config file, environment variables
and flags. Use --json or --yaml to control output format.`,
	Example: `  # Show configuration in YAML format (default)
  dbt-mcp config show

  # Show configuration in JSON format
  dbt-mcp config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
	configShowCmd.Flags().Bool("yaml", true, "Output in YAML format (default)")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	useJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := shared.LoadConfig(cmd)
	if err != nil {
		return err
	}
	values := cfg.Values()

	fmt.Fprintf(out, "# Configuration Sources\n")
	fmt.Fprintf(out, "# Config file: %s\n", shared.ConfigPath(cmd))
	fmt.Fprintf(out, "\n")

	if useJSON {
		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}
