// Package serve provides the command that exposes dbt operations as MCP
// tools over stdio.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	"github.com/mcp-tools/dbt-cli-mcp/internal/config"
	"github.com/mcp-tools/dbt-cli-mcp/internal/dbt"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
	"github.com/mcp-tools/dbt-cli-mcp/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dbt operations as MCP tools over stdio",
	Long: `Serve every dbt operation as an MCP tool over standard input and output.

Standard output carries only protocol messages; logs go to standard error.
With --watch-config, edits to the config file are applied to later tool
calls without a restart. Flags given on the command line keep precedence
over reloaded values.`,
	Example: `  # Serve the project in the current directory
  dbt-mcp serve

  # Serve a specific project and pick up config edits
  dbt-mcp serve --project-dir ~/analytics --watch-config`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// Register adds the serve command to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(serveCmd)
}

func init() {
	serveCmd.GroupID = shared.GroupServer
	serveCmd.Flags().String("project-dir", "", "Directory containing the dbt project (default from config)")
	serveCmd.Flags().Bool("watch-config", false, "Reload the config file when it changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, cfg, err := shared.Bootstrap(cmd)
	if err != nil {
		return err
	}
	projectDir, _ := cmd.Flags().GetString("project-dir")
	if projectDir != "" {
		cfg.ProjectDir = projectDir
		svc.Runtime().Replace(cfg)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch, _ := cmd.Flags().GetBool("watch-config"); watch {
		overrides, err := shared.Overrides(cmd)
		if err != nil {
			return err
		}
		go watchConfig(ctx, svc, shared.ConfigPath(cmd), overrides, projectDir)
	}

	return mcpserver.New(svc).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// watchConfig swaps reloaded configuration into the service's runtime. A
// reload that fails validation keeps the previous configuration.
func watchConfig(ctx context.Context, svc *dbt.Service, path string, overrides map[string]any, projectDir string) {
	log := logging.For("serve")
	opts := config.LoadOptions{Overrides: overrides}
	err := config.Watch(ctx, path, opts, func(cfg *config.Configuration, err error) {
		if err != nil {
			return
		}
		if projectDir != "" {
			cfg.ProjectDir = projectDir
		}
		svc.Runtime().Replace(cfg)
	})
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watching disabled")
	}
}
