package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/corvida/augur/internal/output"
	"github.com/corvida/augur/internal/progress"
	"github.com/corvida/augur/pkg/analyzer"
	"github.com/corvida/augur/pkg/analyzer/deps"
	"github.com/corvida/augur/pkg/analyzer/detect"
	"github.com/corvida/augur/pkg/analyzer/fingerprint"
	"github.com/corvida/augur/pkg/analyzer/plan"
	"github.com/corvida/augur/pkg/analyzer/repomap"
	"github.com/corvida/augur/pkg/config"
	"github.com/corvida/augur/pkg/graph"
	"github.com/corvida/augur/pkg/scanner"
	"github.com/corvida/augur/pkg/source"
	"github.com/corvida/augur/pkg/syntax/tsparse"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	app := &cli.App{
		Name:     "augur",
		Usage:    "TypeScript and JavaScript static analysis CLI",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `Augur analyzes TypeScript and JavaScript codebases for lint, security,
and type-safety issues, structural duplicates, import dependency graphs,
phased refactoring plans, and ranked repository maps.

Supports: TypeScript, TSX, JavaScript, JSX`,
		Flags:  globalFlags(),
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				// Store file handle for cleanup
				c.App.Metadata["pprofCPU"] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata["pprofCPU"].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC() // Get up-to-date statistics
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			fingerprintCmd(),
			graphCmd(),
			planCmd(),
			mapCmd(),
			initCmd(),
			mcpCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// globalFlags returns the app-level flags shared by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, or JSON)",
			EnvVars: []string{"AUGUR_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Parallel analysis workers (default: CPU count)",
		},
		&cli.StringFlag{
			Name:  "rev",
			Usage: "Analyze a committed revision instead of the worktree (e.g. HEAD, a branch, a SHA)",
		},
		&cli.StringFlag{
			Name:  "pprof",
			Usage: "Enable pprof profiling and write to specified prefix (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
		},
	}
}

// loadConfig layers the config file over defaults and applies global flag
// overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.String("config"))
	if err != nil {
		return nil, err
	}
	if n := c.Int("workers"); n > 0 {
		cfg.Workers = n
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	return cfg, nil
}

// collectFiles resolves the positional paths into analyzable files. With
// --rev the list comes from a committed tree and content reads go through
// it; otherwise the worktree is scanned.
func collectFiles(c *cli.Context, cfg *config.Config) ([]string, source.ContentSource, error) {
	paths := getPaths(c)

	if rev := c.String("rev"); rev != "" {
		if len(paths) > 1 {
			return nil, nil, fmt.Errorf("--rev accepts a single repository path")
		}
		spinner := progress.NewSpinner("Reading revision " + rev + "...")
		tree, err := source.NewTree(paths[0], rev)
		if err != nil {
			spinner.FinishError(err)
			return nil, nil, fmt.Errorf("failed to open revision %s: %w", rev, err)
		}
		all, err := tree.Files()
		if err != nil {
			spinner.FinishError(err)
			return nil, nil, fmt.Errorf("failed to list revision %s: %w", rev, err)
		}
		spinner.FinishSuccess()
		var files []string
		for _, f := range all {
			if tsparse.Supported(f) && !cfg.ShouldExclude(f) {
				files = append(files, f)
			}
		}
		sort.Strings(files)
		return files, tree, nil
	}

	scan := scanner.New(cfg)
	files, err := scan.ScanAll(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan: %w", err)
	}
	files, _ = scanner.FilterBySize(files, cfg.MaxFileSize)
	return files, source.NewFilesystem(""), nil
}

// newFormatter builds the output formatter from the global flags, falling
// back to the configured default format.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	name := c.String("format")
	if name == "" {
		name = cfg.Output.Format
	}
	colored := cfg.Output.Color && !c.Bool("no-color")
	return output.NewFormatter(output.ParseFormat(name), c.String("output"), colored)
}

// lineIndex converts byte offsets to 1-based lines, caching file content.
type lineIndex struct {
	src   source.ContentSource
	cache map[string][]byte
}

func newLineIndex(src source.ContentSource) *lineIndex {
	return &lineIndex{src: src, cache: make(map[string][]byte)}
}

func (li *lineIndex) lineFor(path string, offset uint32) uint32 {
	content, ok := li.cache[path]
	if !ok {
		content, _ = li.src.ReadFile(path)
		li.cache[path] = content
	}
	if content == nil {
		return 0
	}
	return tsparse.Line(content, offset)
}

// lookupModule resolves a user-supplied module name against graph IDs,
// tolerating "./" prefixes and unclean paths.
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

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"issues"},
		Usage:     "Detect lint, security, and type-safety issues",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "category",
				Usage: "Detection categories to run: lint, security, type-safety",
			},
			&cli.StringFlag{
				Name:  "rules",
				Usage: "Path to a JSON file with extra detector rules",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cats := c.StringSlice("category"); len(cats) > 0 {
		cfg.Detect.Categories = cats
	}
	if rules := c.String("rules"); rules != "" {
		cfg.Detect.RulesFile = rules
	}

	files, src, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	categories, err := cfg.Detect.DetectCategories()
	if err != nil {
		return err
	}
	detOpts, err := cfg.DetectorOptions()
	if err != nil {
		return err
	}
	detector, err := detect.NewDetector(detOpts...)
	if err != nil {
		return err
	}
	det, err := detect.New(
		detect.WithDetector(detector),
		detect.WithCategories(categories...),
		detect.WithSource(src),
		detect.WithMaxFileSize(cfg.MaxFileSize),
		detect.WithWorkers(cfg.Workers),
	)
	if err != nil {
		return err
	}
	defer det.Close()

	tracker := progress.NewTracker("Detecting issues...", len(files))
	analysis, err := det.Analyze(analyzer.WithTracker(context.Background(), tracker.Hook()), files)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	lines := newLineIndex(src)
	var rows [][]string
	for _, f := range analysis.Files {
		for _, d := range f.Detections {
			kind := string(d.Kind)
			switch d.Kind.Category() {
			case detect.CategorySecurity:
				kind = color.RedString(kind)
			case detect.CategoryTypeSafety:
				kind = color.YellowString(kind)
			}
			lineStr := "-"
			if line := lines.lineFor(f.Path, d.Offset); line > 0 {
				lineStr = fmt.Sprintf("%d", line)
			}
			rows = append(rows, []string{f.Path, lineStr, kind, d.Method})
		}
	}

	table := output.NewTable(
		"Issue Detection",
		[]string{"File", "Line", "Issue", "Method"},
		rows,
		[]string{
			fmt.Sprintf("Issues: %d", analysis.Summary.TotalIssues),
			fmt.Sprintf("Files affected: %d", analysis.Summary.FilesAffected),
			fmt.Sprintf("Files analyzed: %d", analysis.FilesAnalyzed),
		},
		analysis,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if analysis.FilesFailed > 0 && formatter.Format() == output.FormatText {
		fmt.Println()
		color.Yellow("%d files failed to parse", analysis.FilesFailed)
	}
	return nil
}

func fingerprintCmd() *cli.Command {
	return &cli.Command{
		Name:      "fingerprint",
		Aliases:   []string{"fp"},
		Usage:     "Find structural duplicates via normalized tree hashes",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "Normalization depth cap",
			},
			&cli.IntFlag{
				Name:  "min-tokens",
				Usage: "Skip files with fewer normalized tokens",
			},
		},
		Action: runFingerprintCmd,
	}
}

func runFingerprintCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if d := c.Int("max-depth"); d > 0 {
		cfg.Fingerprint.MaxDepth = d
	}
	if t := c.Int("min-tokens"); t > 0 {
		cfg.Fingerprint.MinTokens = t
	}

	files, src, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	fp := fingerprint.New(
		fingerprint.WithMaxDepth(cfg.Fingerprint.MaxDepth),
		fingerprint.WithMinTokens(cfg.Fingerprint.MinTokens),
		fingerprint.WithSource(src),
		fingerprint.WithMaxFileSize(cfg.MaxFileSize),
		fingerprint.WithWorkers(cfg.Workers),
	)
	defer fp.Close()

	tracker := progress.NewTracker("Fingerprinting files...", len(files))
	analysis, err := fp.Analyze(analyzer.WithTracker(context.Background(), tracker.Hook()), files)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for i, g := range analysis.Groups {
		hash := color.CyanString("%016x", g.Fingerprint)
		for _, p := range g.Paths {
			rows = append(rows, []string{fmt.Sprintf("%d", i+1), hash, p})
		}
	}

	table := output.NewTable(
		"Structural Duplicates",
		[]string{"Group", "Fingerprint", "File"},
		rows,
		[]string{
			fmt.Sprintf("Files: %d", analysis.Summary.TotalFiles),
			fmt.Sprintf("Duplicate groups: %d", analysis.Summary.DuplicateGroups),
			fmt.Sprintf("Files in duplicates: %d", analysis.Summary.DuplicateFiles),
		},
		analysis,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if len(analysis.Groups) == 0 && formatter.Format() == output.FormatText {
		color.Green("No structural duplicates found")
	}
	return nil
}

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"deps"},
		Usage:     "Build the import dependency graph (Mermaid output)",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ranks",
				Usage: "Include PageRank scores per module",
			},
			&cli.StringFlag{
				Name:  "dependents-of",
				Usage: "List modules that import the given module",
			},
			&cli.StringFlag{
				Name:  "dependencies-of",
				Usage: "List modules the given module imports",
			},
			&cli.BoolFlag{
				Name:  "transitive",
				Usage: "Follow impact queries through the whole graph",
			},
		},
		Action: runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, src, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	da := deps.New(
		deps.WithSource(src),
		deps.WithMaxFileSize(cfg.MaxFileSize),
		deps.WithWorkers(cfg.Workers),
	)
	defer da.Close()

	tracker := progress.NewTracker("Building dependency graph...", len(files))
	analysis, err := da.Analyze(analyzer.WithTracker(context.Background(), tracker.Hook()), files)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	// Impact queries replace the full graph output.
	if target := c.String("dependents-of"); target != "" {
		return printImpact(formatter, analysis, target, true, c.Bool("transitive"))
	}
	if target := c.String("dependencies-of"); target != "" {
		return printImpact(formatter, analysis, target, false, c.Bool("transitive"))
	}

	// For JSON/TOON, output structured data
	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(analysis.Report(c.Bool("ranks")))
	}

	// Generate Mermaid diagram for text/markdown
	w := formatter.Writer()
	fmt.Fprintln(w, "```mermaid")
	fmt.Fprint(w, analysis.Graph.Mermaid())
	fmt.Fprintln(w, "```")

	fmt.Fprintln(w)
	if formatter.Colored() {
		color.Cyan("Graph Metrics:")
	} else {
		fmt.Fprintln(w, "Graph Metrics:")
	}
	fmt.Fprintf(w, "  Modules: %d\n", analysis.Summary.Modules)
	fmt.Fprintf(w, "  Edges: %d\n", analysis.Summary.Edges)
	fmt.Fprintf(w, "  External imports: %d\n", analysis.Summary.Externals)
	fmt.Fprintf(w, "  Unresolved imports: %d\n", analysis.Summary.Unresolved)

	if cycles := analysis.Graph.Cycles(); len(cycles) > 0 {
		fmt.Fprintln(w)
		if formatter.Colored() {
			color.Red("Cycles (%d):", len(cycles))
		} else {
			fmt.Fprintf(w, "Cycles (%d):\n", len(cycles))
		}
		for _, cycle := range cycles {
			fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " -> "))
		}
	}

	if c.Bool("ranks") {
		ranks := analysis.Graph.PageRank()
		coupling := analysis.Graph.Coupling()
		modules := analysis.Graph.Modules()
		sort.Slice(modules, func(i, j int) bool {
			return ranks[modules[i]] > ranks[modules[j]]
		})

		fmt.Fprintln(w)
		if formatter.Colored() {
			color.Cyan("Top Modules by PageRank:")
		} else {
			fmt.Fprintln(w, "Top Modules by PageRank:")
		}
		for i, m := range modules {
			if i >= 5 {
				break
			}
			cp := coupling[m]
			fmt.Fprintf(w, "  %s: %.4f (in: %d, out: %d)\n", m, ranks[m], cp.Afferent, cp.Efferent)
		}
	}

	return nil
}

// printImpact renders the dependents or dependencies of one module.
func printImpact(formatter *output.Formatter, analysis *deps.Analysis, target string, dependents, transitive bool) error {
	g := analysis.Graph
	name, ok := lookupModule(g, target)
	if !ok {
		return fmt.Errorf("module not in graph: %s", target)
	}

	var related []string
	switch {
	case dependents && transitive:
		related = g.TransitiveDependents(name)
	case dependents:
		related = g.Dependents(name)
	case transitive:
		related = g.TransitiveDependencies(name)
	default:
		related = g.Dependencies(name)
	}
	sort.Strings(related)

	relation := "dependencies"
	if dependents {
		relation = "dependents"
	}

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(struct {
			Module     string   `json:"module" toon:"module"`
			Relation   string   `json:"relation" toon:"relation"`
			Transitive bool     `json:"transitive" toon:"transitive"`
			Modules    []string `json:"modules" toon:"modules"`
		}{name, relation, transitive, related})
	}

	w := formatter.Writer()
	label := fmt.Sprintf("%d %s of %s", len(related), relation, name)
	if transitive {
		label = fmt.Sprintf("%d transitive %s of %s", len(related), relation, name)
	}
	if formatter.Colored() {
		color.Cyan("%s:", label)
	} else {
		fmt.Fprintf(w, "%s:\n", label)
	}
	for _, m := range related {
		fmt.Fprintf(w, "  %s\n", m)
	}
	return nil
}

func planCmd() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Generate a phased refactoring plan from the dependency graph",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "percentile",
				Usage: "Coupling percentile above which modules count as core",
			},
		},
		Action: runPlanCmd,
	}
}

func runPlanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if p := c.Int("percentile"); p > 0 {
		cfg.Plan.Percentile = p
	}

	files, src, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	da := deps.New(
		deps.WithSource(src),
		deps.WithMaxFileSize(cfg.MaxFileSize),
		deps.WithWorkers(cfg.Workers),
	)
	defer da.Close()

	tracker := progress.NewTracker("Building dependency graph...", len(files))
	analysis, err := da.Analyze(analyzer.WithTracker(context.Background(), tracker.Hook()), files)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()

	planner := plan.New(plan.WithPercentile(cfg.Plan.Percentile))
	p, err := planner.Plan(analysis.Graph)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var rows [][]string
	for _, ph := range p.Phases {
		parallel := "-"
		if ph.CanParallelize {
			parallel = "yes"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", ph.Order),
			fmt.Sprintf("%d", len(ph.Modules)),
			truncate(strings.Join(ph.Modules, ", "), 60),
			parallel,
			output.RiskColor(string(ph.RiskLevel), string(ph.RiskLevel)),
			fmt.Sprintf("%.1f", ph.RiskScore),
			string(ph.Category),
		})
	}

	table := output.NewTable(
		"Refactoring Plan",
		[]string{"Phase", "Modules", "Members", "Parallel", "Risk", "Score", "Category"},
		rows,
		[]string{
			fmt.Sprintf("Modules: %d", p.TotalModules),
			fmt.Sprintf("Phases: %d", len(p.Phases)),
			fmt.Sprintf("Estimated risk: %s", output.RiskColor(string(p.EstimatedRisk), string(p.EstimatedRisk))),
			fmt.Sprintf("Cycles: %d", len(p.Cycles)),
		},
		p,
	)
	if err := formatter.Output(table); err != nil {
		return err
	}

	if len(p.Cycles) > 0 && formatter.Format() == output.FormatText {
		fmt.Println()
		color.Yellow("Cycles (%d):", len(p.Cycles))
		for _, cycle := range p.Cycles {
			fmt.Printf("  - %s\n", strings.Join(cycle, " -> "))
		}
	}
	return nil
}

func mapCmd() *cli.Command {
	return &cli.Command{
		Name:      "map",
		Usage:     "Render a ranked map of the repository",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Limit output to the N highest ranked files",
			},
			&cli.StringFlag{
				Name:  "budget",
				Usage: "Token budget for the rendered map (e.g. 4000, 8k, 64k)",
			},
			&cli.IntFlag{
				Name:  "signature-cap",
				Usage: "Max signatures shown per file",
			},
		},
		Action: runMapCmd,
	}
}

func runMapCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("signature-cap"); n > 0 {
		cfg.Map.SignatureCap = n
	}
	budget := cfg.Map.Budget
	if s := c.String("budget"); s != "" {
		budget, err = output.ParseBudget(s)
		if err != nil {
			return err
		}
	}

	files, src, err := collectFiles(c, cfg)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	rm := repomap.New(
		repomap.WithSource(src),
		repomap.WithMaxFileSize(cfg.MaxFileSize),
		repomap.WithSignatureCap(cfg.Map.SignatureCap),
		repomap.WithWorkers(cfg.Workers),
	)
	defer rm.Close()

	tracker := progress.NewTracker("Mapping repository...", len(files))
	analysis, err := rm.Analyze(analyzer.WithTracker(context.Background(), tracker.Hook()), files)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	tracker.FinishSuccess()

	if top := c.Int("top"); top > 0 {
		analysis.Files = analysis.TopN(top)
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(analysis)
	}

	text, shown := renderMap(analysis, budget)
	w := formatter.Writer()
	if formatter.Format() == output.FormatMarkdown {
		fmt.Fprintln(w, "```")
		fmt.Fprint(w, text)
		fmt.Fprintln(w, "```")
		return nil
	}
	fmt.Fprint(w, text)

	info := output.GetTokenBudgetInfo(text, budget)
	summary := fmt.Sprintf("Files: %d of %d | Defs: %d | Refs: %d | Tokens: ~%s (%.0f%% of %s)",
		shown, analysis.TotalFiles, analysis.TotalDefs, analysis.TotalRefs,
		output.FormatTokenCount(info.Tokens), info.UsagePercent, info.BudgetLabel)
	if formatter.Colored() {
		color.Cyan("%s", summary)
	} else {
		fmt.Fprintln(w, summary)
	}
	return nil
}

// renderMap renders ranked files with their signatures, stopping when the
// token budget is exhausted. A zero budget renders everything.
func renderMap(analysis *repomap.Analysis, budget int) (string, int) {
	var b strings.Builder
	used := 0
	shown := 0
	for _, f := range analysis.Files {
		var fb strings.Builder
		fmt.Fprintf(&fb, "%s:\n", f.Path)
		for _, sig := range f.Signatures {
			fmt.Fprintf(&fb, "  %4d: %s\n", sig.Line, sig.Text)
		}
		if f.Omitted > 0 {
			fmt.Fprintf(&fb, "  ... +%d more\n", f.Omitted)
		}
		fb.WriteString("\n")

		chunk := output.EstimateTokens(fb.String())
		if budget > 0 && used+chunk > budget {
			break
		}
		b.WriteString(fb.String())
		used += chunk
		shown++
	}
	return b.String(), shown
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write a default config file",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	path := ".augur.toml"
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	if c.Bool("force") {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	color.Green("Wrote %s", path)
	return nil
}
