package config

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	"github.com/mcp-tools/dbt-cli-mcp/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"doc"},
	Short:   "Run health checks for the dbt setup (doc)",
	Long: `Run health checks to verify that dbt can be invoked for the configured project.

This command checks for:
  - dbt executable (resolvable to a regular file)
  - dbt version (runs "<dbt> --version" with the configured timeout)
  - dbt project (dbt_project.yml in the project directory)
  - Environment file (optional)

Each check will display a checkmark if passed or an X with an error message if failed.`,
	Example: `  # Check the configured project
  dbt-mcp doctor

  # Check another dbt executable
  dbt-mcp doctor --dbt-path ~/.venvs/dbt/bin/dbt`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	doctorCmd.GroupID = shared.GroupConfiguration
	doctorCmd.Flags().String("project-dir", "", "Directory containing the dbt project (default from config)")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	svc, cfg, err := shared.Bootstrap(cmd)
	if err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("project-dir"); dir != "" {
		cfg.ProjectDir = dir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report := health.RunHealthChecks(ctx, *cfg, svc)
	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

	if !report.Passed {
		return shared.NewExitError(shared.ExitOperationFailed)
	}
	return nil
}
