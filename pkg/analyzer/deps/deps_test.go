package deps

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/corvida/augur/pkg/syntax/tsparse"
	"github.com/corvida/augur/pkg/testutil"
)

func TestAnalyzeBuildsGraph(t *testing.T) {
	dir := t.TempDir()
	app := testutil.WriteFile(t, dir, "src/app.ts",
		"import { helper } from \"./lib/helpers\";\n"+
			"import lodash from \"lodash\";\n"+
			"export { x } from \"./lib/x\";\n"+
			"const native = require(\"./native\");\n")
	helpers := testutil.WriteFile(t, dir, "src/lib/helpers.ts", "export const helper = 1;\n")
	x := testutil.WriteFile(t, dir, "src/lib/x.ts", "export const x = 2;\n")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{app, helpers, x})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if analysis.FilesAnalyzed != 3 {
		t.Errorf("FilesAnalyzed = %d, want 3", analysis.FilesAnalyzed)
	}
	deps := analysis.Graph.Dependencies(app)
	if len(deps) != 2 || deps[0] != helpers || deps[1] != x {
		t.Errorf("Dependencies(app) = %v, want [%s %s]", deps, helpers, x)
	}
	if analysis.Summary.Externals != 1 {
		t.Errorf("Externals = %d, want 1 (lodash)", analysis.Summary.Externals)
	}
	if len(analysis.Unresolved) != 1 || analysis.Unresolved[0].Specifier != "./native" {
		t.Errorf("Unresolved = %v, want [./native]", analysis.Unresolved)
	}
	if analysis.Summary.Modules != 3 || analysis.Summary.Edges != 2 {
		t.Errorf("Summary = %+v, want 3 modules, 2 edges", analysis.Summary)
	}
}

func TestResolveExtensionCandidates(t *testing.T) {
	dir := t.TempDir()
	a1 := testutil.WriteFile(t, dir, "a.ts", "import \"./b\";\n")
	b := testutil.WriteFile(t, dir, "b.tsx", "export default 1;\n")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{a1, b})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	deps := analysis.Graph.Dependencies(a1)
	if len(deps) != 1 || deps[0] != b {
		t.Errorf("Dependencies = %v, want [%s]", deps, b)
	}
}

func TestResolveIndexCandidates(t *testing.T) {
	dir := t.TempDir()
	main := testutil.WriteFile(t, dir, "main.ts", "import { u } from \"./util\";\n")
	index := testutil.WriteFile(t, dir, "util/index.ts", "export const u = 1;\n")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{main, index})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	deps := analysis.Graph.Dependencies(main)
	if len(deps) != 1 || deps[0] != index {
		t.Errorf("Dependencies = %v, want [%s]", deps, index)
	}
}

func TestResolveExactPath(t *testing.T) {
	dir := t.TempDir()
	main := testutil.WriteFile(t, dir, "main.ts", "import \"./exact.ts\";\n")
	exact := testutil.WriteFile(t, dir, "exact.ts", "export {};\n")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{main, exact})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	deps := analysis.Graph.Dependencies(main)
	if len(deps) != 1 || deps[0] != exact {
		t.Errorf("Dependencies = %v, want [%s]", deps, exact)
	}
}

func TestResolveParentDirectory(t *testing.T) {
	dir := t.TempDir()
	child := testutil.WriteFile(t, dir, "src/deep/child.ts", "import { s } from \"../shared\";\n")
	shared := testutil.WriteFile(t, dir, "src/shared.ts", "export const s = 1;\n")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{child, shared})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	deps := analysis.Graph.Dependencies(child)
	if len(deps) != 1 || deps[0] != shared {
		t.Errorf("Dependencies = %v, want [%s]", deps, shared)
	}
}

func TestExternalsNotInGraph(t *testing.T) {
	dir := t.TempDir()
	main := testutil.WriteFile(t, dir, "main.ts",
		"import react from \"react\";\nimport path from \"node:path\";\n")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{main})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Graph.Len() != 1 {
		t.Errorf("Modules = %v, want only the analyzed file", analysis.Graph.Modules())
	}
	if analysis.Summary.Externals != 2 {
		t.Errorf("Externals = %d, want 2", analysis.Summary.Externals)
	}
	if len(analysis.Unresolved) != 0 {
		t.Errorf("Unresolved = %v, want none", analysis.Unresolved)
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		testutil.WriteFile(t, dir, "a.ts", "import \"./b\";\nimport \"./c\";\n"),
		testutil.WriteFile(t, dir, "b.ts", "import \"./c\";\n"),
		testutil.WriteFile(t, dir, "c.ts", "export {};\n"),
	}

	run := func() []string {
		a := New()
		defer a.Close()
		analysis, err := a.Analyze(context.Background(), files)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		return analysis.Graph.Modules()
	}

	m1 := run()
	m2 := run()
	if len(m1) != len(m2) {
		t.Fatalf("module counts differ: %v vs %v", m1, m2)
	}
	for i := range m1 {
		if m1[i] != m2[i] {
			t.Errorf("Modules()[%d]: %q vs %q", i, m1[i], m2[i])
		}
	}
}

func TestFailedFilesCounted(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "good.ts", "export {};\n")
	missing := filepath.Join(dir, "missing.ts")

	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.FilesAnalyzed != 1 || analysis.FilesFailed != 1 {
		t.Errorf("analyzed/failed = %d/%d, want 1/1", analysis.FilesAnalyzed, analysis.FilesFailed)
	}
}

func TestEmptyInput(t *testing.T) {
	a := New()
	defer a.Close()

	analysis, err := a.Analyze(context.Background(), nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Graph.Len() != 0 {
		t.Errorf("graph = %v, want empty", analysis.Graph.Modules())
	}
}

func TestExtractImports(t *testing.T) {
	p := tsparse.New()
	defer p.Close()

	src := "import a from \"./a\";\n" +
		"import { b } from \"../b\";\n" +
		"export { c } from \"./c\";\n" +
		"export const local = 1;\n" +
		"const d = require(\"./d\");\n" +
		"notRequire(\"./e\");\n"
	result, err := p.Parse([]byte(src), tsparse.LangTypeScript, "x.ts")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	specs := ExtractImports(result.Root)
	want := []string{"./a", "../b", "./c", "./d"}
	if len(specs) != len(want) {
		t.Fatalf("ExtractImports() = %v, want %v", specs, want)
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("specs[%d] = %q, want %q", i, specs[i], want[i])
		}
	}
}

func TestReport(t *testing.T) {
	analysis := NewAnalysis()
	analysis.Graph.AddModule("a.ts")
	analysis.Graph.AddModule("b.ts")
	analysis.Graph.AddDependency("a.ts", "b.ts")
	analysis.Graph.AddDependency("b.ts", "a.ts")
	analysis.Unresolved = append(analysis.Unresolved, UnresolvedImport{File: "a.ts", Specifier: "./gone"})
	analysis.CalculateSummary(3)

	report := analysis.Report(true)
	if len(report.Modules) != 2 {
		t.Fatalf("modules = %d, want 2", len(report.Modules))
	}

	a := report.Modules[0]
	if a.Path != "a.ts" {
		t.Errorf("modules[0].Path = %q, want a.ts", a.Path)
	}
	if a.FanIn != 1 || a.FanOut != 1 {
		t.Errorf("a.ts fan in/out = %d/%d, want 1/1", a.FanIn, a.FanOut)
	}
	if a.Instability != 0.5 {
		t.Errorf("a.ts instability = %v, want 0.5", a.Instability)
	}
	if a.Rank <= 0 {
		t.Errorf("a.ts rank = %v, want > 0", a.Rank)
	}

	if len(report.Cycles) != 1 || len(report.Cycles[0]) != 2 {
		t.Errorf("cycles = %v, want one two-member cycle", report.Cycles)
	}
	if report.Summary.Externals != 3 || report.Summary.Unresolved != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}

	plain := analysis.Report(false)
	if plain.Modules[0].Rank != 0 {
		t.Errorf("rank without ranks = %v, want 0", plain.Modules[0].Rank)
	}
}
