package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/corvida/augur/internal/output"
	"github.com/corvida/augur/pkg/analyzer/deps"
	"github.com/corvida/augur/pkg/analyzer/detect"
	"github.com/corvida/augur/pkg/analyzer/plan"
	"github.com/corvida/augur/pkg/analyzer/repomap"
	"github.com/corvida/augur/pkg/config"
	"github.com/corvida/augur/pkg/graph"
	"github.com/corvida/augur/pkg/scanner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"
)

// Common input structures for tools

// AnalyzeInput is the base input shared by all tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// IssuesInput adds detection options.
type IssuesInput struct {
	AnalyzeInput
	Categories []string `json:"categories,omitempty" jsonschema:"Restrict to detection families: lint, security, type-safety. Defaults to all."`
	RulesFile  string   `json:"rules_file,omitempty" jsonschema:"Path to a JSON file overriding the banned-name rule tables."`
}

// GraphInput adds graph-specific options.
type GraphInput struct {
	AnalyzeInput
	IncludeRanks   bool   `json:"include_ranks,omitempty" jsonschema:"Include PageRank importance scores per module."`
	DependentsOf   string `json:"dependents_of,omitempty" jsonschema:"Report every module that transitively imports this one (change impact)."`
	DependenciesOf string `json:"dependencies_of,omitempty" jsonschema:"Report every module this one transitively imports."`
}

// PlanInput adds planner options.
type PlanInput struct {
	AnalyzeInput
	Percentile int `json:"percentile,omitempty" jsonschema:"Coupling percentile above which modules count as core. Default 75."`
}

// RepoMapInput adds repo map options.
type RepoMapInput struct {
	AnalyzeInput
	Top          int `json:"top,omitempty" jsonschema:"Number of top-ranked files to include. Default 25."`
	SignatureCap int `json:"signature_cap,omitempty" jsonschema:"Maximum signatures listed per file. Default 10."`
}

// Helper functions

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// formatOutput renders a tool payload. TOON is the default because it
// carries the same structure as JSON in far fewer tokens.
func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// scanSources loads configuration from the working directory and walks the
// requested paths, applying excludes and the size cap.
func scanSources(paths []string) (*config.Config, []string, error) {
	cfg, err := config.LoadOrDefault("")
	if err != nil {
		return nil, nil, err
	}
	files, err := scanner.New(cfg).ScanAll(paths...)
	if err != nil {
		return nil, nil, err
	}
	files, _ = scanner.FilterBySize(files, cfg.MaxFileSize)
	return cfg, files, nil
}

// lookupModule finds a graph node, tolerating unnormalized path spellings.
func lookupModule(g *graph.Graph, name string) (string, bool) {
	if g.HasModule(name) {
		return name, true
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if g.HasModule(clean) {
		return clean, true
	}
	return "", false
}

// Tool handlers

func handleAnalyzeIssues(ctx context.Context, req *mcp.CallToolRequest, input IssuesInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.AnalyzeInput)
	format := getFormat(input.AnalyzeInput)

	cfg, files, err := scanSources(paths)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no source files found")
	}

	detectCfg := *cfg
	if len(input.Categories) > 0 {
		detectCfg.Detect.Categories = input.Categories
	}
	if input.RulesFile != "" {
		detectCfg.Detect.RulesFile = input.RulesFile
	}

	cats, err := detectCfg.Detect.DetectCategories()
	if err != nil {
		return toolError(err.Error())
	}
	detOpts, err := detectCfg.DetectorOptions()
	if err != nil {
		return toolError(err.Error())
	}
	detector, err := detect.NewDetector(detOpts...)
	if err != nil {
		return toolError(err.Error())
	}

	a, err := detect.New(
		detect.WithDetector(detector),
		detect.WithCategories(cats...),
		detect.WithMaxFileSize(cfg.MaxFileSize),
		detect.WithWorkers(cfg.Workers),
	)
	if err != nil {
		return toolError(err.Error())
	}
	defer a.Close()

	result, err := a.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(result, format)
}

func handleDependencyGraph(ctx context.Context, req *mcp.CallToolRequest, input GraphInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.AnalyzeInput)
	format := getFormat(input.AnalyzeInput)

	cfg, files, err := scanSources(paths)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no source files found")
	}

	a := deps.New(
		deps.WithMaxFileSize(cfg.MaxFileSize),
		deps.WithWorkers(cfg.Workers),
	)
	defer a.Close()

	analysis, err := a.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}

	if input.DependentsOf != "" || input.DependenciesOf != "" {
		type moduleImpact struct {
			Module       string   `json:"module" toon:"module"`
			Dependents   []string `json:"dependents,omitempty" toon:"dependents,omitempty"`
			Dependencies []string `json:"dependencies,omitempty" toon:"dependencies,omitempty"`
		}

		var impacts []moduleImpact
		if input.DependentsOf != "" {
			name, ok := lookupModule(analysis.Graph, input.DependentsOf)
			if !ok {
				return toolError("module not in graph: " + input.DependentsOf)
			}
			impacts = append(impacts, moduleImpact{
				Module:     name,
				Dependents: analysis.Graph.TransitiveDependents(name),
			})
		}
		if input.DependenciesOf != "" {
			name, ok := lookupModule(analysis.Graph, input.DependenciesOf)
			if !ok {
				return toolError("module not in graph: " + input.DependenciesOf)
			}
			impacts = append(impacts, moduleImpact{
				Module:       name,
				Dependencies: analysis.Graph.TransitiveDependencies(name),
			})
		}

		result := struct {
			Impact  []moduleImpact `json:"impact" toon:"impact"`
			Summary deps.Summary   `json:"summary" toon:"summary"`
		}{impacts, analysis.Summary}
		return toolResult(result, format)
	}

	return toolResult(analysis.Report(input.IncludeRanks), format)
}

func handleRefactoringPlan(ctx context.Context, req *mcp.CallToolRequest, input PlanInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.AnalyzeInput)
	format := getFormat(input.AnalyzeInput)

	cfg, files, err := scanSources(paths)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no source files found")
	}

	a := deps.New(
		deps.WithMaxFileSize(cfg.MaxFileSize),
		deps.WithWorkers(cfg.Workers),
	)
	defer a.Close()

	analysis, err := a.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}

	percentile := input.Percentile
	if percentile <= 0 {
		percentile = cfg.Plan.Percentile
	}

	p, err := plan.New(plan.WithPercentile(percentile)).Plan(analysis.Graph)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(p, format)
}

func handleRepoMap(ctx context.Context, req *mcp.CallToolRequest, input RepoMapInput) (*mcp.CallToolResult, any, error) {
	paths := getPaths(input.AnalyzeInput)
	format := getFormat(input.AnalyzeInput)

	cfg, files, err := scanSources(paths)
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no source files found")
	}

	top := input.Top
	if top <= 0 {
		top = 25
	}
	sigCap := input.SignatureCap
	if sigCap <= 0 {
		sigCap = cfg.Map.SignatureCap
	}

	a := repomap.New(
		repomap.WithSignatureCap(sigCap),
		repomap.WithMaxFileSize(cfg.MaxFileSize),
		repomap.WithWorkers(cfg.Workers),
	)
	defer a.Close()

	rm, err := a.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}

	result := struct {
		Files      []repomap.FileEntry `json:"files" toon:"files"`
		TotalFiles int                 `json:"total_files" toon:"total_files"`
		TotalDefs  int                 `json:"total_defs" toon:"total_defs"`
		TotalRefs  int                 `json:"total_refs" toon:"total_refs"`
	}{rm.TopN(top), rm.TotalFiles, rm.TotalDefs, rm.TotalRefs}

	return toolResult(result, format)
}
