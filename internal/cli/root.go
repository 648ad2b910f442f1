// dbt-cli-mcp - dbt command execution for AI agents and scripts

// Package cli provides Cobra-based CLI commands for dbt-cli-mcp.
// It defines one command per dbt operation (run, test, ls, compile, debug,
// deps, seed, show, build), the MCP server (serve), and configuration and
// utility commands (config, configure, doctor, version).
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/config"
	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/operations"
	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/serve"
	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/util"
	apperrors "github.com/mcp-tools/dbt-cli-mcp/internal/errors"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupGettingStarted = shared.GroupGettingStarted
	GroupOperations     = shared.GroupOperations
	GroupServer         = shared.GroupServer
	GroupConfiguration  = shared.GroupConfiguration
)

var rootCmd = &cobra.Command{
	Use:   "dbt-mcp",
	Short: "Run dbt commands for AI agents and scripts",
	Long: `Run dbt commands for AI agents and scripts

Every dbt operation is available as a subcommand and, through "serve", as an
MCP tool. Results are normalized: failures always carry a readable message,
listings become {name, resource_type, path} records, and previews become rows.`,
	Example: `  # Check the setup
  dbt-mcp doctor

  # Run one model and its children
  dbt-mcp run --models "customers+"

  # List models as a table
  dbt-mcp ls --resource-type model --format table

  # Preview rows as JSON
  dbt-mcp show --models customers --limit 5 --format json

  # Serve every operation as an MCP tool over stdio
  dbt-mcp serve --project-dir ~/analytics`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors that only carry an exit code were
// already reported by the command; any other error is printed to stderr.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx. SIGINT and SIGTERM cancel
// ctx, so a running dbt process group is terminated before the CLI exits.
func ExecuteContext(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !shared.IsExitError(err) {
		apperrors.PrintError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func init() {
	// Define command groups in display order
	rootCmd.AddGroup(&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupOperations, Title: "dbt Operations:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupServer, Title: "Server:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	// Assign built-in help and completion to configuration group
	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	// Global flags
	shared.AddGlobalFlags(rootCmd)

	// Register commands from subpackages
	operations.Register(rootCmd)
	serve.Register(rootCmd)
	config.Register(rootCmd)
	util.Register(rootCmd)
}
