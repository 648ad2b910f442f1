// Package operations provides one CLI command per dbt operation.
// Includes: run, test, ls, compile, debug, deps, seed, show, build
package operations

import (
	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
)

// Register adds a command for every supported operation to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	for _, op := range invocation.Operations() {
		rootCmd.AddCommand(NewCommand(op))
	}
}
