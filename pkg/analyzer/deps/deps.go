// Package deps builds the module dependency graph from import statements,
// re-exports, and require calls across a TypeScript or JavaScript tree.
package deps

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/corvida/augur/pkg/analyzer"
	"github.com/corvida/augur/pkg/source"
	"github.com/corvida/augur/pkg/syntax"
	"github.com/corvida/augur/pkg/syntax/tsparse"
)

// Resolution candidates for an extensionless relative specifier, in the
// order a bundler would try them.
var extCandidates = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}

var indexCandidates = []string{
	"/index.ts", "/index.tsx", "/index.js", "/index.jsx",
}

// Analyzer extracts imports per file in parallel, then resolves relative
// specifiers against the analyzed file set and assembles the graph in
// input order so results are deterministic.
type Analyzer struct {
	src         source.ContentSource
	maxFileSize int64
	workers     int
}

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithSource sets where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		if src != nil {
			a.src = src
		}
	}
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) Option {
	return func(a *Analyzer) { a.maxFileSize = n }
}

// WithWorkers caps analysis parallelism.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// New creates a dependency analyzer reading from the working tree.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{src: source.NewFilesystem("")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the import graph for files. Every parseable file becomes a
// module even when nothing imports it. External (package) specifiers are
// counted and skipped; relative specifiers that resolve to no analyzed file
// are reported as unresolved.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	analysis := NewAnalysis()
	if len(files) == 0 {
		analysis.CalculateSummary(0)
		return analysis, nil
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(len(files))
	}

	type outcome struct {
		path    string
		imports []string
		err     error
	}

	results := analyzer.MapFilesN(files, a.workers, func(p *tsparse.Parser, file string) (outcome, error) {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		imports, err := a.extractFile(p, file)
		return outcome{path: file, imports: imports, err: err}, nil
	}, func() {
		if tracker != nil {
			tracker.Tick("")
		}
	})

	byPath := make(map[string]outcome, len(results))
	for _, r := range results {
		byPath[r.path] = r
	}

	// Module universe: canonical form of every successfully parsed file.
	known := make(map[string]string, len(files))
	for _, file := range files {
		r, ok := byPath[file]
		if !ok || r.err != nil {
			continue
		}
		known[canonicalPath(file)] = file
	}

	externals := 0
	for _, file := range files {
		r, ok := byPath[file]
		if !ok {
			continue
		}
		if r.err != nil {
			analysis.FilesFailed++
			continue
		}
		analysis.FilesAnalyzed++
		analysis.Graph.AddModule(file)

		for _, spec := range r.imports {
			if !isRelative(spec) {
				externals++
				continue
			}
			target, ok := resolveRelative(canonicalPath(file), spec, known)
			if !ok {
				analysis.Unresolved = append(analysis.Unresolved, UnresolvedImport{File: file, Specifier: spec})
				continue
			}
			analysis.Graph.AddDependency(file, target)
		}
	}
	analysis.CalculateSummary(externals)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analysis, nil
}

// Close implements FileAnalyzer; the analyzer holds no parser of its own.
func (a *Analyzer) Close() {}

func (a *Analyzer) extractFile(p *tsparse.Parser, file string) ([]string, error) {
	content, err := a.src.ReadFile(file)
	if err != nil {
		return nil, err
	}
	lang := tsparse.DetectLanguage(file)
	if lang == tsparse.LangUnknown {
		return nil, fmt.Errorf("%s: %w", file, tsparse.ErrUnsupportedLanguage)
	}
	if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
		return nil, fmt.Errorf("%s: %d bytes: %w", file, len(content), tsparse.ErrFileTooLarge)
	}
	result, err := p.Parse(content, lang, file)
	if err != nil {
		return nil, err
	}
	return ExtractImports(result.Root), nil
}

// ExtractImports returns every import specifier in the tree, in source
// order: static imports, re-exports with a source clause, require calls,
// and dynamic import() calls.
func ExtractImports(root *syntax.Node) []string {
	var specs []string
	syntax.Walk(root, func(n *syntax.Node) bool {
		switch n.Kind {
		case syntax.KindImportStatement, syntax.KindExportStatement:
			if s := specifierOf(n); s != "" {
				specs = append(specs, s)
			}
		case syntax.KindCallExpression:
			if s := callImport(n); s != "" {
				specs = append(specs, s)
			}
		}
		return true
	})
	return specs
}

// specifierOf reads the string source of an import or export statement.
// Exports without a from-clause have no string child and yield nothing.
func specifierOf(n *syntax.Node) string {
	s := n.Child(syntax.KindString)
	if s == nil {
		return ""
	}
	return stringContent(s)
}

// callImport matches require("x") and import("x") with a literal argument.
func callImport(n *syntax.Node) string {
	callee := n.FirstChild()
	if callee == nil {
		return ""
	}
	isRequire := callee.Kind == syntax.KindIdentifier && callee.Name == "require"
	isDynamic := callee.Kind == syntax.Kind("import")
	if !isRequire && !isDynamic {
		return ""
	}
	args := n.Child(syntax.KindArguments)
	if args == nil {
		return ""
	}
	stmts := args.Statements()
	if len(stmts) != 1 || stmts[0].Kind != syntax.KindString {
		return ""
	}
	return stringContent(stmts[0])
}

// stringContent returns a string literal's text without quotes.
func stringContent(s *syntax.Node) string {
	if frag := s.Child(syntax.KindStringFragment); frag != nil {
		return frag.Value
	}
	v := s.Value
	if len(v) >= 2 {
		return v[1 : len(v)-1]
	}
	return ""
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == ".."
}

// canonicalPath normalizes a file path for candidate matching.
func canonicalPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// resolveRelative maps a relative specifier to an analyzed file, trying the
// exact path, extension appends, and index files in that order.
func resolveRelative(fromFile, spec string, known map[string]string) (string, bool) {
	target := path.Clean(path.Join(path.Dir(fromFile), spec))

	if tsparse.Supported(target) {
		if id, ok := known[target]; ok {
			return id, true
		}
	}
	for _, ext := range extCandidates {
		if id, ok := known[target+ext]; ok {
			return id, true
		}
	}
	for _, idx := range indexCandidates {
		if id, ok := known[target+idx]; ok {
			return id, true
		}
	}
	return "", false
}
