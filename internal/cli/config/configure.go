package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	cfgpkg "github.com/mcp-tools/dbt-cli-mcp/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure <path>",
	Short: "Configure the path to the dbt executable",
	Long: `Configure the path to the dbt executable.

The path must name an existing regular file. It is saved as dbt_path in the
config file and used by every later command and by the MCP server.`,
	Example: `  # Use the dbt installed in a virtualenv
  dbt-mcp configure ~/.venvs/dbt/bin/dbt`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigure,
}

func init() {
	configureCmd.GroupID = shared.GroupConfiguration
}

func runConfigure(cmd *cobra.Command, args []string) error {
	svc, _, err := shared.Bootstrap(cmd)
	if err != nil {
		return err
	}
	path := args[0]
	msg, err := svc.Configure(path)
	if err != nil {
		return err
	}

	filePath := shared.ConfigPath(cmd)
	if err := cfgpkg.Persist(filePath, "dbt_path", path); err != nil {
		return fmt.Errorf("saving dbt path to %s: %w", filePath, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
