package deps

import "github.com/corvida/augur/pkg/graph"

// UnresolvedImport is a relative import whose target is not among the
// analyzed files.
type UnresolvedImport struct {
	File      string `json:"file"`
	Specifier string `json:"specifier"`
}

// Summary aggregates a dependency scan.
type Summary struct {
	Modules    int `json:"modules"`
	Edges      int `json:"edges"`
	Externals  int `json:"externals"`
	Unresolved int `json:"unresolved"`
}

// Analysis is the import graph of a file set plus what could not be wired
// into it.
type Analysis struct {
	Graph         *graph.Graph       `json:"-"`
	Unresolved    []UnresolvedImport `json:"unresolved,omitempty"`
	FilesAnalyzed int                `json:"files_analyzed"`
	FilesFailed   int                `json:"files_failed,omitempty"`
	Summary       Summary            `json:"summary"`
}

// NewAnalysis creates an empty analysis with an empty graph.
func NewAnalysis() *Analysis {
	return &Analysis{
		Graph:      graph.New(),
		Unresolved: make([]UnresolvedImport, 0),
	}
}

// CalculateSummary fills in the aggregate counts from the graph.
func (a *Analysis) CalculateSummary(externals int) {
	a.Summary = Summary{
		Modules:    a.Graph.Len(),
		Edges:      a.Graph.EdgeCount(),
		Externals:  externals,
		Unresolved: len(a.Unresolved),
	}
}

// ModuleEntry is one module in the serialized graph with its direct
// dependencies and coupling measures.
type ModuleEntry struct {
	Path         string   `json:"path"`
	Dependencies []string `json:"dependencies,omitempty"`
	FanIn        int      `json:"fan_in"`
	FanOut       int      `json:"fan_out"`
	Instability  float64  `json:"instability"`
	Rank         float64  `json:"rank,omitempty"`
}

// Report is the serializable form of an Analysis. Modules keep graph
// insertion order, which follows the analyzed file order.
type Report struct {
	Modules    []ModuleEntry      `json:"modules"`
	Cycles     [][]string         `json:"cycles,omitempty"`
	Unresolved []UnresolvedImport `json:"unresolved,omitempty"`
	Summary    Summary            `json:"summary"`
}

// Report flattens the graph for output. PageRank scores are computed only
// when withRanks is set.
func (a *Analysis) Report(withRanks bool) *Report {
	coupling := a.Graph.Coupling()
	var ranks map[string]float64
	if withRanks {
		ranks = a.Graph.PageRank()
	}

	modules := make([]ModuleEntry, 0, a.Graph.Len())
	for _, m := range a.Graph.Modules() {
		c := coupling[m]
		entry := ModuleEntry{
			Path:         m,
			Dependencies: a.Graph.Dependencies(m),
			FanIn:        c.Afferent,
			FanOut:       c.Efferent,
			Instability:  c.Instability(),
		}
		if withRanks {
			entry.Rank = ranks[m]
		}
		modules = append(modules, entry)
	}

	return &Report{
		Modules:    modules,
		Cycles:     a.Graph.Cycles(),
		Unresolved: a.Unresolved,
		Summary:    a.Summary,
	}
}
