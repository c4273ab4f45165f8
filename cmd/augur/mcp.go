package main

import (
	"context"
	"fmt"

	"github.com/corvida/augur/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes augur's analyzers
as tools that LLMs can invoke. This enables AI assistants like Claude to
inspect the TypeScript and JavaScript codebases they are working on.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "augur": {
        "command": "augur",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_issues     Lint, security, and type-safety detections
  - dependency_graph   Import graph with coupling, cycles, and impact queries
  - refactoring_plan   Phased refactoring order with risk levels
  - repo_map           PageRank-ranked file and signature map`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Print the MCP registry manifest and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("manifest") {
		data, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	server := mcpserver.NewServer(version)
	return server.Run(context.Background())
}
