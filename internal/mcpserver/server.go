// Package mcpserver exposes every dbt operation as an MCP tool over stdio.
// Tool failures are returned as tool results with isError set, carrying the
// same text the CLI prints, so clients always receive a readable message.
package mcpserver

import (
	"context"
	"io"
	stdlog "log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mcp-tools/dbt-cli-mcp/internal/build"
	"github.com/mcp-tools/dbt-cli-mcp/internal/dbt"
	"github.com/mcp-tools/dbt-cli-mcp/internal/logging"
)

const instructions = "Tools in this server run the dbt command-line tool against a dbt project. " +
	"Use dbt_ls to discover resources, dbt_compile to inspect generated SQL, dbt_show to preview rows, " +
	"and dbt_run, dbt_test, dbt_seed or dbt_build to change the warehouse."

// Server wraps the dbt service and the MCP protocol server.
type Server struct {
	svc       *dbt.Service
	mcpServer *server.MCPServer
}

// New creates a server with every dbt tool registered.
func New(svc *dbt.Service) *Server {
	mcpServer := server.NewMCPServer(
		build.ServerName,
		build.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s := &Server{svc: svc, mcpServer: mcpServer}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
// Protocol errors are logged; out carries only protocol messages.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log := logging.For("mcp")
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(stdlog.New(log, "", 0))

	log.Info().Str("version", build.Version).Int("tools", len(s.mcpServer.ListTools())).Msg("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
