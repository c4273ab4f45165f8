// Package repomap ranks files by structural importance and selects their
// top declarations for display. Files referencing a symbol lend rank to the
// file defining it, so the map surfaces the code everything else leans on.
package repomap

import (
	"context"
	"fmt"
	"sort"

	"github.com/corvida/augur/pkg/analyzer"
	"github.com/corvida/augur/pkg/graph"
	"github.com/corvida/augur/pkg/source"
	"github.com/corvida/augur/pkg/syntax/tsparse"
)

// DefaultSignatureCap bounds the signatures kept per file.
const DefaultSignatureCap = 10

// Ensure Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Analyzer builds a ranked repository map. Files are parsed in parallel;
// the reference graph, ranking, and selection run single-threaded over the
// merged results.
type Analyzer struct {
	src          source.ContentSource
	maxFileSize  int64
	signatureCap int
	workers      int
}

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

// WithSignatureCap overrides the per-file signature cap. Zero or negative
// keeps every signature.
func WithSignatureCap(n int) Option {
	return func(a *Analyzer) { a.signatureCap = n }
}

// WithWorkers caps analysis parallelism.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// New creates a repo map analyzer reading from the working tree.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		src:          source.NewFilesystem(""),
		signatureCap: DefaultSignatureCap,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze builds the ranked map for files. Per-file parse failures are
// counted, not fatal. Output is ordered by rank descending, path ascending
// on ties.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	analysis := NewAnalysis()
	if len(files) == 0 {
		return analysis, nil
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(len(files))
	}

	type outcome struct {
		sym fileSymbols
		err error
	}

	results := analyzer.MapFilesN(files, a.workers, func(p *tsparse.Parser, file string) (outcome, error) {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		sym, err := a.extractFile(p, file)
		sym.path = file
		return outcome{sym: sym, err: err}, nil
	}, func() {
		if tracker != nil {
			tracker.Tick("")
		}
	})

	byPath := make(map[string]outcome, len(results))
	for _, r := range results {
		byPath[r.sym.path] = r
	}

	// Merge in input order so indices, edges, and output are deterministic.
	var symbols []fileSymbols
	for _, file := range files {
		r, ok := byPath[file]
		if !ok || r.err != nil {
			analysis.FilesFailed++
			continue
		}
		symbols = append(symbols, r.sym)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	definers := defIndex(symbols)
	ranks := rankFiles(symbols, definers)
	for i, sym := range symbols {
		entry := FileEntry{
			RankedFile: RankedFile{
				Path:     sym.path,
				Rank:     ranks[i],
				DefCount: len(sym.defs),
				RefCount: resolvedRefs(sym, definers),
			},
		}
		entry.Signatures, entry.Omitted = a.selectSignatures(sym.defs)
		analysis.Files = append(analysis.Files, entry)
	}

	analysis.CalculateSummary()
	return analysis, nil
}

// Close releases resources. Workers own their parsers, so there is nothing
// to release here.
func (a *Analyzer) Close() {}

// extractFile parses one file and collects its symbols.
func (a *Analyzer) extractFile(p *tsparse.Parser, file string) (fileSymbols, error) {
	lang := tsparse.DetectLanguage(file)
	if lang == tsparse.LangUnknown {
		return fileSymbols{}, fmt.Errorf("%s: %w", file, tsparse.ErrUnsupportedLanguage)
	}

	content, err := a.src.ReadFile(file)
	if err != nil {
		return fileSymbols{}, err
	}
	if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
		return fileSymbols{}, fmt.Errorf("%s (%d bytes): %w", file, len(content), tsparse.ErrFileTooLarge)
	}

	result, err := p.Parse(content, lang, file)
	if err != nil {
		return fileSymbols{}, err
	}
	return extractSymbols(result), nil
}

// selectSignatures keeps the top signatures by source line and reports how
// many were cut.
func (a *Analyzer) selectSignatures(defs []Signature) ([]Signature, int) {
	selected := make([]Signature, len(defs))
	copy(selected, defs)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Line < selected[j].Line
	})

	if a.signatureCap > 0 && len(selected) > a.signatureCap {
		omitted := len(selected) - a.signatureCap
		return selected[:a.signatureCap], omitted
	}
	return selected, 0
}

// refEdge is one weighted edge of the file reference graph.
type refEdge struct {
	to     int
	weight float64
}

// defIndex maps each defined name to the files defining it, in input order.
func defIndex(symbols []fileSymbols) map[string][]int {
	definers := make(map[string][]int)
	for i, sym := range symbols {
		seen := make(map[string]bool, len(sym.defs))
		for _, d := range sym.defs {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			definers[d.Name] = append(definers[d.Name], i)
		}
	}
	return definers
}

// rankFiles runs weighted PageRank over the file reference graph: an edge
// from each file to every file defining a symbol it references, weighted by
// reference count. Same-file references add no edge. Rank held by files
// with no outgoing references is redistributed uniformly each round.
func rankFiles(symbols []fileSymbols, definers map[string][]int) []float64 {
	n := len(symbols)
	if n == 0 {
		return nil
	}

	edges := make([][]refEdge, n)
	for i, sym := range symbols {
		weights := make(map[int]float64)
		for name, count := range sym.refs {
			for _, j := range definers[name] {
				if j != i {
					weights[j] += float64(count)
				}
			}
		}
		targets := make([]int, 0, len(weights))
		for j := range weights {
			targets = append(targets, j)
		}
		sort.Ints(targets)
		for _, j := range targets {
			edges[i] = append(edges[i], refEdge{to: j, weight: weights[j]})
		}
	}

	return powerIterate(edges)
}

// powerIterate is the sparse PageRank loop over prebuilt weighted edges.
func powerIterate(edges [][]refEdge) []float64 {
	n := len(edges)
	outWeight := make([]float64, n)
	for i, es := range edges {
		for _, e := range es {
			outWeight[i] += e.weight
		}
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range rank {
		rank[i] = initial
	}
	teleport := (1 - graph.DampingFactor) / float64(n)

	for iter := 0; iter < graph.MaxIterations; iter++ {
		dangling := 0.0
		for i := range next {
			next[i] = teleport
		}
		for i, es := range edges {
			if outWeight[i] == 0 {
				dangling += rank[i]
				continue
			}
			share := graph.DampingFactor * rank[i] / outWeight[i]
			for _, e := range es {
				next[e.to] += share * e.weight
			}
		}
		if dangling > 0 {
			spread := graph.DampingFactor * dangling / float64(n)
			for i := range next {
				next[i] += spread
			}
		}

		diff := 0.0
		for i := range rank {
			d := next[i] - rank[i]
			if d < 0 {
				d = -d
			}
			diff += d
		}
		rank, next = next, rank
		if diff < graph.Tolerance {
			break
		}
	}
	return rank
}

// resolvedRefs counts the references in sym that resolve to a definition
// anywhere in the analyzed set, its own file included.
func resolvedRefs(sym fileSymbols, definers map[string][]int) int {
	total := 0
	for name, count := range sym.refs {
		if len(definers[name]) > 0 {
			total += count
		}
	}
	return total
}
