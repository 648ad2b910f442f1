package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mcp-tools/dbt-cli-mcp/internal/dbt"
	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

// registerTools registers one tool per operation plus the configure tool.
func (s *Server) registerTools() {
	for _, op := range invocation.Operations() {
		s.mcpServer.AddTool(operationTool(op), s.handleOperation(op))
	}
	s.mcpServer.AddTool(configureTool(), s.handleConfigure)
}

func (s *Server) handleOperation(op invocation.Operation) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.For("mcp").Debug().Str("tool", request.Params.Name).Interface("arguments", request.GetArguments()).Msg("tool call")

		resp := s.svc.Execute(ctx, op, requestFrom(request))
		if !resp.Success {
			return mcp.NewToolResultError(resp.Text), nil
		}
		return mcp.NewToolResultText(resp.Text), nil
	}
}

func (s *Server) handleConfigure(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required"), nil
	}

	msg, err := s.svc.Configure(path)
	if err != nil {
		return mcp.NewToolResultErrorf("Error configuring dbt path: %v", err), nil
	}
	return mcp.NewToolResultText(msg), nil
}

// requestFrom reads the tool arguments. Arguments an operation does not
// accept are passed through and omitted by the invocation builder.
func requestFrom(request mcp.CallToolRequest) dbt.Request {
	return dbt.Request{
		ProjectDir:   request.GetString("project_dir", ""),
		Models:       request.GetString(string(invocation.FieldModels), ""),
		Selector:     request.GetString(string(invocation.FieldSelector), ""),
		Exclude:      request.GetString(string(invocation.FieldExclude), ""),
		ResourceType: request.GetString(string(invocation.FieldResourceType), ""),
		OutputFormat: request.GetString(string(invocation.FieldOutputFormat), ""),
		Limit:        request.GetInt(string(invocation.FieldLimit), 0),
		FullRefresh:  request.GetBool(string(invocation.FieldFullRefresh), false),
	}
}
