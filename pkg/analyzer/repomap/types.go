package repomap

import "sort"

// Definition types recorded in the map.
const (
	DefFunction  = "function"
	DefClass     = "class"
	DefInterface = "interface"
	DefTypeAlias = "type"
	DefEnum      = "enum"
	DefMethod    = "method"
	DefVariable  = "variable"
)

// RankedFile is one file with its importance rank. Rank flows from files
// that reference a symbol to the files defining it, so widely referenced
// files score high.
type RankedFile struct {
	Path     string  `json:"path"`
	Rank     float64 `json:"rank"`
	DefCount int     `json:"def_count"`
	RefCount int     `json:"ref_count"`
}

// Signature is one declaration selected for display.
type Signature struct {
	Name       string `json:"name"`
	Line       uint32 `json:"line"`
	Type       string `json:"type"`
	IsExported bool   `json:"is_exported"`
	Text       string `json:"text"`
}

// FileEntry pairs a ranked file with its selected signatures. Omitted
// counts the signatures cut by the per-file cap and drives the "+N more"
// marker in rendered output.
type FileEntry struct {
	RankedFile
	Signatures []Signature `json:"signatures"`
	Omitted    int         `json:"omitted,omitempty"`
}

// Analysis is a ranked map of the repository, ordered by rank descending.
type Analysis struct {
	Files       []FileEntry `json:"files"`
	TotalFiles  int         `json:"total_files"`
	TotalDefs   int         `json:"total_defs"`
	TotalRefs   int         `json:"total_refs"`
	FilesFailed int         `json:"files_failed,omitempty"`
}

// NewAnalysis creates an empty analysis.
func NewAnalysis() *Analysis {
	return &Analysis{Files: []FileEntry{}}
}

// CalculateSummary orders files by rank descending, path ascending on ties,
// and recomputes the totals.
func (a *Analysis) CalculateSummary() {
	sort.Slice(a.Files, func(i, j int) bool {
		if a.Files[i].Rank != a.Files[j].Rank {
			return a.Files[i].Rank > a.Files[j].Rank
		}
		return a.Files[i].Path < a.Files[j].Path
	})

	a.TotalFiles = len(a.Files)
	a.TotalDefs = 0
	a.TotalRefs = 0
	for _, f := range a.Files {
		a.TotalDefs += f.DefCount
		a.TotalRefs += f.RefCount
	}
}

// TopN returns the N highest-ranked files.
func (a *Analysis) TopN(n int) []FileEntry {
	if n > len(a.Files) {
		n = len(a.Files)
	}
	return a.Files[:n]
}
