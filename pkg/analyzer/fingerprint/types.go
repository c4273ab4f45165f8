package fingerprint

import "sort"

// FileFingerprint is one file's structural hash.
type FileFingerprint struct {
	Path        string `json:"path"`
	Fingerprint uint64 `json:"fingerprint"`
	Tokens      int    `json:"tokens"`
}

// Group collects files whose normalized trees hash identically.
type Group struct {
	Fingerprint uint64   `json:"fingerprint"`
	Paths       []string `json:"paths"`
}

// Summary aggregates a fingerprint run.
type Summary struct {
	TotalFiles      int `json:"total_files"`
	DuplicateGroups int `json:"duplicate_groups"`
	DuplicateFiles  int `json:"duplicate_files"`
}

// Analysis is the result of fingerprinting a set of files.
type Analysis struct {
	Files         []FileFingerprint `json:"files"`
	Groups        []Group           `json:"groups"`
	FilesAnalyzed int               `json:"files_analyzed"`
	FilesFailed   int               `json:"files_failed,omitempty"`
	Summary       Summary           `json:"summary"`
}

// NewAnalysis creates an empty analysis result.
func NewAnalysis() *Analysis {
	return &Analysis{
		Files:  make([]FileFingerprint, 0),
		Groups: make([]Group, 0),
	}
}

// CalculateSummary sorts files, groups identical fingerprints, and fills in
// the aggregate counts. Only groups of two or more files are reported.
func (a *Analysis) CalculateSummary() {
	sort.Slice(a.Files, func(i, j int) bool {
		return a.Files[i].Path < a.Files[j].Path
	})

	byHash := make(map[uint64][]string)
	for _, f := range a.Files {
		byHash[f.Fingerprint] = append(byHash[f.Fingerprint], f.Path)
	}

	a.Groups = a.Groups[:0]
	for hash, paths := range byHash {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		a.Groups = append(a.Groups, Group{Fingerprint: hash, Paths: paths})
	}
	sort.Slice(a.Groups, func(i, j int) bool {
		return a.Groups[i].Paths[0] < a.Groups[j].Paths[0]
	})

	a.Summary = Summary{TotalFiles: len(a.Files)}
	for _, g := range a.Groups {
		a.Summary.DuplicateGroups++
		a.Summary.DuplicateFiles += len(g.Paths)
	}
}
