package util

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/build"
	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long: `Display version, commit, build date, and Go version information for dbt-cli-mcp.

With --dbt, also ask the configured dbt executable for its version.`,
	Example: `  # Show version info
  dbt-mcp version

  # Plain output (for scripts)
  dbt-mcp version --plain

  # Include the dbt version
  dbt-mcp version --dbt`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	versionCmd.GroupID = shared.GroupGettingStarted
	versionCmd.Flags().Bool("plain", false, "Plain output without formatting")
	versionCmd.Flags().Bool("dbt", false, "Also report the configured dbt version")
}

type versionLine struct {
	label string
	value string
}

func runVersion(cmd *cobra.Command, _ []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	withDBT, _ := cmd.Flags().GetBool("dbt")

	info := versionInfo()
	if withDBT {
		dbtVersion, err := probeDBT(cmd)
		if err != nil {
			return err
		}
		info = append(info, versionLine{"dbt", dbtVersion})
	}

	out := cmd.OutOrStdout()
	if plain {
		printPlainVersion(out, info)
	} else {
		printPrettyVersion(out, info)
	}
	return nil
}

func versionInfo() []versionLine {
	return []versionLine{
		{"Version", build.Version},
		{"Commit", truncateCommit(build.Commit)},
		{"Built", build.BuildDate},
		{"Go", runtime.Version()},
		{"Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// probeDBT returns the first line of `<dbt> --version`.
func probeDBT(cmd *cobra.Command) (string, error) {
	svc, _, err := shared.Bootstrap(cmd)
	if err != nil {
		return "", err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := svc.Version(ctx, "")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer, info []versionLine) {
	fmt.Fprintf(w, "%s %s\n", build.ServerName, build.Version)
	for _, item := range info[1:] {
		fmt.Fprintf(w, "%s: %s\n", strings.ToLower(item.label), item.value)
	}
}

// printPrettyVersion prints labeled, colored version output
func printPrettyVersion(w io.Writer, info []versionLine) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintln(w, cyan(build.ServerName))
	for _, item := range info {
		fmt.Fprintf(w, "  %s    %s\n", yellow(fmt.Sprintf("%10s", item.label)), white(item.value))
	}
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
