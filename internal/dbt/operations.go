package dbt

import (
	"context"

	"github.com/mcp-tools/dbt-cli-mcp/internal/invocation"
	"github.com/mcp-tools/dbt-cli-mcp/internal/result"
)

// Run executes models.
func (s *Service) Run(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Run, req)
}

// Test runs data tests.
func (s *Service) Test(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Test, req)
}

// List lists project resources. OutputFormat selects the rendering mode.
func (s *Service) List(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.List, req)
}

// Compile renders SQL without executing it.
func (s *Service) Compile(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Compile, req)
}

// Debug checks the project and connection setup.
func (s *Service) Debug(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Debug, req)
}

// Deps installs package dependencies.
func (s *Service) Deps(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Deps, req)
}

// Seed loads CSV seed files.
func (s *Service) Seed(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Seed, req)
}

// Show previews the rows of a model. Models is required.
func (s *Service) Show(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.Show, req)
}

// Build runs and tests the selected resources in dependency order.
func (s *Service) Build(ctx context.Context, req Request) result.Response {
	return s.Execute(ctx, invocation.BuildOp, req)
}
