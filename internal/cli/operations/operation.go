package operations

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-tools/dbt-cli-mcp/internal/cli/shared"
	"github.com/mcp-tools/dbt-cli-mcp/internal/dbt"
	"github.com/mcp-tools/dbt-cli-mcp/internal/format"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/progress"
)

type commandDoc struct {
	short   string
	long    string
	example string
	aliases []string
}

var docs = map[invocation.Operation]commandDoc{
	invocation.Run: {
		short: "Run dbt models",
		long: `Run dbt models against the target database.

Selection follows the dbt syntax: --models picks resources, --selector names a
selector from selectors.yml and --exclude removes resources from the selection.`,
		example: `  # Run every model
  dbt-mcp run

  # Run one model and everything downstream of it
  dbt-mcp run --models "customers+"

  # Rebuild incremental models from scratch
  dbt-mcp run --models orders --full-refresh`,
	},
	invocation.Test: {
		short: "Run dbt tests",
		example: `  # Test one model
  dbt-mcp test --models customers`,
	},
	invocation.List: {
		short:   "List dbt resources",
		aliases: []string{"list"},
		long: `List resources in the dbt project.

In json mode (the default) every listing shape dbt produces is normalized into
{name, resource_type, path} records. The name, path and selector modes print
what dbt printed.`,
		example: `  # List models as JSON records
  dbt-mcp ls --resource-type model

  # Print model names only
  dbt-mcp ls --resource-type model --output-format name

  # Render the listing as a table
  dbt-mcp ls --format table`,
	},
	invocation.Compile: {
		short: "Compile dbt models to SQL without running them",
	},
	invocation.Debug: {
		short: "Check the dbt project and connection setup",
	},
	invocation.Deps: {
		short: "Install dbt package dependencies",
	},
	invocation.Seed: {
		short: "Load CSV seed files into the database",
	},
	invocation.Show: {
		short: "Preview the rows of a model",
		long: `Preview the results of a model without materializing it.

The preview table dbt prints is reshaped into a JSON array of row objects.
--models is required.`,
		example: `  # Preview five rows
  dbt-mcp show --models customers --limit 5

  # Render the preview as a table
  dbt-mcp show --models customers --format table`,
	},
	invocation.BuildOp: {
		short: "Run seeds, snapshots, models and tests in dependency order",
	},
}

var fieldUsage = map[invocation.Field]string{
	invocation.FieldModels:       "Models to select, using the dbt selection syntax",
	invocation.FieldSelector:     "Named selector from selectors.yml",
	invocation.FieldExclude:      "Resources to exclude",
	invocation.FieldResourceType: "Resource type to list (model, test, source, ...)",
	invocation.FieldLimit:        "Limit the number of rows returned",
	invocation.FieldFullRefresh:  "Perform a full refresh",
}

// FlagName returns the CLI flag for field, e.g. "resource-type".
func FlagName(field invocation.Field) string {
	return strings.ReplaceAll(string(field), "_", "-")
}

// NewCommand builds the command for op. Its flags are exactly the options
// op accepts, plus --project-dir.
func NewCommand(op invocation.Operation) *cobra.Command {
	doc := docs[op]
	long := doc.long
	if long == "" {
		long = doc.short + "."
	}
	cmd := &cobra.Command{
		Use:     string(op),
		Aliases: doc.aliases,
		Short:   doc.short,
		Long:    long,
		Example: doc.example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperation(cmd, op)
		},
	}
	cmd.GroupID = shared.GroupOperations

	flags := cmd.Flags()
	flags.String("project-dir", "", "Directory containing the dbt project (default from config)")
	for _, field := range op.Fields() {
		name := FlagName(field)
		switch field {
		case invocation.FieldFullRefresh:
			flags.Bool(name, false, fieldUsage[field])
		case invocation.FieldLimit:
			flags.Int(name, 0, fieldUsage[field])
		case invocation.FieldOutputFormat:
			if op == invocation.List {
				flags.String(name, format.ModeJSON, "Listing mode: json, name, path or selector")
			} else {
				flags.String(name, "", "Set to json to request structured output from dbt")
			}
		case invocation.FieldModels:
			usage := fieldUsage[field]
			if op.RequiresModels() {
				usage += " (required)"
			}
			flags.String(name, "", usage)
		default:
			flags.String(name, "", fieldUsage[field])
		}
	}
	return cmd
}

// requestFromFlags reads the operation's flags into a service request.
func requestFromFlags(cmd *cobra.Command) (dbt.Request, error) {
	flags := cmd.Flags()
	var req dbt.Request
	var err error
	str := func(name string) string {
		if err != nil || flags.Lookup(name) == nil {
			return ""
		}
		var v string
		v, err = flags.GetString(name)
		return v
	}

	req.ProjectDir = str("project-dir")
	req.Models = str(FlagName(invocation.FieldModels))
	req.Selector = str(FlagName(invocation.FieldSelector))
	req.Exclude = str(FlagName(invocation.FieldExclude))
	req.ResourceType = str(FlagName(invocation.FieldResourceType))
	req.OutputFormat = str(FlagName(invocation.FieldOutputFormat))
	if err != nil {
		return req, err
	}
	if flags.Lookup(FlagName(invocation.FieldLimit)) != nil {
		if req.Limit, err = flags.GetInt(FlagName(invocation.FieldLimit)); err != nil {
			return req, err
		}
	}
	if flags.Lookup(FlagName(invocation.FieldFullRefresh)) != nil {
		if req.FullRefresh, err = flags.GetBool(FlagName(invocation.FieldFullRefresh)); err != nil {
			return req, err
		}
	}
	return req, nil
}

// runOperation executes op and prints the rendered result to stdout. A
// failed operation still prints its diagnostic text and exits 1 whatever
// its failure kind; the other exit codes belong to errors raised before
// the operation runs.
func runOperation(cmd *cobra.Command, op invocation.Operation) error {
	svc, cfg, err := shared.Bootstrap(cmd)
	if err != nil {
		return err
	}
	req, err := requestFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("reading flags: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	errOut := cmd.ErrOrStderr()
	var caps progress.TerminalCapabilities
	if f, ok := errOut.(*os.File); ok {
		caps = progress.DetectTerminalCapabilities(f)
	}
	display := progress.NewDisplay(errOut, caps)
	display.Start(op.Display())
	res := svc.Result(ctx, op, req)
	display.Finish(res.Success)

	resp := svc.Respond(res, req)
	if err := shared.Render(cmd.OutOrStdout(), shared.OutputFormat(cfg), res, resp, req.OutputFormat); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if !resp.Success {
		return shared.NewExitError(shared.ExitOperationFailed)
	}
	return nil
}
