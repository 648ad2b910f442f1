package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcp-tools/dbt-cli-mcp/internal/format"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
)

// ConfigureTool is the name of the reconfiguration tool.
const ConfigureTool = "configure_dbt_path"

// ToolName returns the MCP tool name for op, e.g. "dbt_ls".
func ToolName(op invocation.Operation) string {
	return "dbt_" + string(op)
}

var toolDescriptions = map[invocation.Operation]string{
	invocation.Run: "Run dbt models. Use this tool to execute models and build analytical tables " +
		"in the data warehouse, for example to refresh data or apply new transformations.",
	invocation.Test: "Run dbt tests. Use this tool to validate data quality by running the tests " +
		"defined in the project before the data is used for analysis or reporting.",
	invocation.List: "List dbt resources. Use this tool to discover models, tests, sources and other " +
		"resources in the project and to select resources for other operations. " +
		"In json mode the result is an array of {name, resource_type, path} objects.",
	invocation.Compile: "Compile dbt models. Use this tool to generate the SQL that would run without " +
		"executing it, to validate syntax or inspect how dbt interprets a model.",
	invocation.Debug: "Run dbt debug to validate the project setup. Use this tool to troubleshoot " +
		"configuration, check database connectivity and verify dependencies.",
	invocation.Deps: "Install dbt package dependencies listed in packages.yml.",
	invocation.Seed: "Load CSV files as seed data into the database, for reference tables and static data.",
	invocation.Show: "Preview the results of a model without materializing it. " +
		"Rows are returned as a JSON array of objects when the preview table can be parsed.",
	invocation.BuildOp: "Run the build command: seeds, snapshots, models and tests in dependency order. " +
		"Use this tool for a complete project deployment.",
}

var fieldOptions = map[invocation.Field]mcp.ToolOption{
	invocation.FieldSelector: mcp.WithString(string(invocation.FieldSelector),
		mcp.Description("Named selector from selectors.yml"),
	),
	invocation.FieldExclude: mcp.WithString(string(invocation.FieldExclude),
		mcp.Description("Resources to exclude, using the dbt selection syntax"),
	),
	invocation.FieldResourceType: mcp.WithString(string(invocation.FieldResourceType),
		mcp.Description("Type of resource to list (model, test, source, etc.)"),
	),
	invocation.FieldLimit: mcp.WithNumber(string(invocation.FieldLimit),
		mcp.Description("Limit the number of rows returned"),
		mcp.Min(0),
	),
	invocation.FieldFullRefresh: mcp.WithBoolean(string(invocation.FieldFullRefresh),
		mcp.Description("Whether to perform a full refresh"),
		mcp.DefaultBool(false),
	),
}

// operationTool builds the tool definition for op from the options it accepts.
func operationTool(op invocation.Operation) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(toolDescriptions[op]),
		mcp.WithString("project_dir",
			mcp.Description("Directory containing the dbt project. Defaults to the configured project directory."),
		),
	}

	for _, field := range op.Fields() {
		switch field {
		case invocation.FieldModels:
			propOpts := []mcp.PropertyOption{
				mcp.Description("Models to select, using the dbt selection syntax (e.g. \"model_name+\")"),
			}
			if op.RequiresModels() {
				propOpts = append(propOpts, mcp.Required())
			}
			opts = append(opts, mcp.WithString(string(field), propOpts...))
		case invocation.FieldOutputFormat:
			opts = append(opts, outputFormatOption(op))
		default:
			opts = append(opts, fieldOptions[field])
		}
	}

	return mcp.NewTool(ToolName(op), opts...)
}

func outputFormatOption(op invocation.Operation) mcp.ToolOption {
	if op == invocation.List {
		return mcp.WithString(string(invocation.FieldOutputFormat),
			mcp.Description("Output format (json, name, path, or selector)"),
			mcp.Enum(format.ModeJSON, format.ModeName, format.ModePath, format.ModeSelector),
			mcp.DefaultString(format.ModeJSON),
		)
	}
	return mcp.WithString(string(invocation.FieldOutputFormat),
		mcp.Description("Set to json to request structured output from dbt"),
		mcp.Enum(invocation.OutputJSON),
	)
}

func configureTool() mcp.Tool {
	return mcp.NewTool(ConfigureTool,
		mcp.WithDescription("Configure the path to the dbt executable used by subsequent tool calls."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the dbt executable"),
		),
	)
}
