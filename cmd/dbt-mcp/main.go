// dbt-cli-mcp - dbt command execution for AI agents and scripts

package main

import (
	"os"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
