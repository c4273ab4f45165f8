package detect

import "sort"

// IssueKind identifies a single detection rule's finding.
type IssueKind string

const (
	// Lint findings.
	KindDebugger       IssueKind = "debugger"
	KindEmptyCatch     IssueKind = "empty-catch"
	KindBannedFunction IssueKind = "banned-function"
	KindConsoleCall    IssueKind = "console-call"

	// Security findings.
	KindCommandInjection IssueKind = "command-injection"
	KindPathTraversal    IssueKind = "path-traversal"

	// Type-safety findings.
	KindAnyType          IssueKind = "any-type"
	KindAsAny            IssueKind = "as-any"
	KindDoubleAssertion  IssueKind = "double-assertion"
	KindNonNullAssertion IssueKind = "non-null-assertion"
)

// Category groups issue kinds into the three detection families.
type Category string

const (
	CategoryLint       Category = "lint"
	CategorySecurity   Category = "security"
	CategoryTypeSafety Category = "type-safety"
)

// Category returns the family a kind belongs to.
func (k IssueKind) Category() Category {
	switch k {
	case KindCommandInjection, KindPathTraversal:
		return CategorySecurity
	case KindAnyType, KindAsAny, KindDoubleAssertion, KindNonNullAssertion:
		return CategoryTypeSafety
	default:
		return CategoryLint
	}
}

// Detection is a single finding produced by one detector invocation. It is
// immutable once created. Offset is the byte offset of the flagged node;
// Method carries the matched callee name when the rule has one.
type Detection struct {
	Kind   IssueKind `json:"kind"`
	Offset uint32    `json:"offset"`
	Method string    `json:"method,omitempty"`
}

// FileIssues holds every detection for one file.
type FileIssues struct {
	Path       string      `json:"path"`
	Detections []Detection `json:"detections"`
}

// Summary aggregates detections across a run.
type Summary struct {
	TotalIssues   int               `json:"total_issues"`
	FilesAffected int               `json:"files_affected"`
	ByKind        map[IssueKind]int `json:"by_kind"`
	ByCategory    map[Category]int  `json:"by_category"`
}

// Analysis is the result of running the detectors over a set of files.
type Analysis struct {
	Files         []FileIssues `json:"files"`
	FilesAnalyzed int          `json:"files_analyzed"`
	FilesFailed   int          `json:"files_failed,omitempty"`
	Summary       Summary      `json:"summary"`
}

// NewAnalysis creates an empty analysis result.
func NewAnalysis() *Analysis {
	return &Analysis{
		Files: make([]FileIssues, 0),
		Summary: Summary{
			ByKind:     make(map[IssueKind]int),
			ByCategory: make(map[Category]int),
		},
	}
}

// AddFile records one file's detections.
func (a *Analysis) AddFile(fi FileIssues) {
	a.Files = append(a.Files, fi)
}

// CalculateSummary recomputes the aggregate counts and sorts files by path.
func (a *Analysis) CalculateSummary() {
	sort.Slice(a.Files, func(i, j int) bool {
		return a.Files[i].Path < a.Files[j].Path
	})

	summary := Summary{
		ByKind:     make(map[IssueKind]int),
		ByCategory: make(map[Category]int),
	}
	for _, f := range a.Files {
		if len(f.Detections) > 0 {
			summary.FilesAffected++
		}
		for _, d := range f.Detections {
			summary.TotalIssues++
			summary.ByKind[d.Kind]++
			summary.ByCategory[d.Kind.Category()]++
		}
	}
	a.Summary = summary
}
