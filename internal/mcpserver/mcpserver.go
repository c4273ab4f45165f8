// Package mcpserver exposes augur's analyzers as Model Context Protocol
// tools over stdio, so LLM agents can query a codebase's issues, import
// graph, refactoring order, and repository map.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps an MCP server with the augur tool and prompt registrations.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server exposing the analysis tools.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}

	impl := &mcp.Implementation{
		Name:    "augur",
		Version: version,
	}

	s := &Server{
		server: mcp.NewServer(impl, nil),
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	// Lint, security, and type-safety detections
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_issues",
		Description: describeIssues(),
	}, handleAnalyzeIssues)

	// Import graph with coupling, cycles, and impact queries
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "dependency_graph",
		Description: describeGraph(),
	}, handleDependencyGraph)

	// Phased refactoring order
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "refactoring_plan",
		Description: describePlan(),
	}, handleRefactoringPlan)

	// PageRank-ranked file map
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "repo_map",
		Description: describeRepoMap(),
	}, handleRepoMap)
}
