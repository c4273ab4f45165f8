package detect

import (
	"context"
	"fmt"

	"github.com/corvida/augur/pkg/analyzer"
	"github.com/corvida/augur/pkg/source"
	"github.com/corvida/augur/pkg/syntax"
	"github.com/corvida/augur/pkg/syntax/tsparse"
)

// Analyzer runs the detector rules over many files in parallel. Per-file
// failures (unreadable, unsupported, oversized) are counted, not fatal.
type Analyzer struct {
	parser     *tsparse.Parser
	detector   *Detector
	categories map[Category]bool

	src         source.ContentSource
	maxFileSize int64
	workers     int
}

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithCategories restricts output to the given detection families. The
// default is all of them.
func WithCategories(cats ...Category) Option {
	return func(a *Analyzer) {
		if len(cats) == 0 {
			return
		}
		a.categories = make(map[Category]bool, len(cats))
		for _, c := range cats {
			a.categories[c] = true
		}
	}
}

// WithSource sets where file content is read from. The default is the
// working tree.
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

// WithDetector replaces the default rule tables.
func WithDetector(d *Detector) Option {
	return func(a *Analyzer) {
		if d != nil {
			a.detector = d
		}
	}
}

// New creates an analyzer with the default detector and filesystem source.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		parser: tsparse.New(),
		src:    source.NewFilesystem(""),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.detector == nil {
		d, err := NewDetector()
		if err != nil {
			return nil, err
		}
		a.detector = d
	}
	return a, nil
}

// Detector returns the rule tables this analyzer evaluates.
func (a *Analyzer) Detector() *Detector {
	return a.detector
}

// Analyze runs the detectors over files. Results are ordered by path.
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
		file FileIssues
		err  error
	}

	results := analyzer.MapFilesN(files, a.workers, func(p *tsparse.Parser, path string) (outcome, error) {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		fi, err := a.analyzeFile(p, path)
		return outcome{file: fi, err: err}, nil
	}, func() {
		if tracker != nil {
			tracker.Tick("")
		}
	})

	for _, r := range results {
		if r.err != nil {
			analysis.FilesFailed++
			continue
		}
		analysis.FilesAnalyzed++
		analysis.AddFile(r.file)
	}
	analysis.CalculateSummary()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analysis, nil
}

// AnalyzeSource runs the detectors over one in-memory source. Not safe for
// concurrent use; it shares the analyzer's own parser.
func (a *Analyzer) AnalyzeSource(path string, content []byte) (FileIssues, error) {
	return a.detectIn(a.parser, path, content)
}

func (a *Analyzer) analyzeFile(p *tsparse.Parser, path string) (FileIssues, error) {
	content, err := a.src.ReadFile(path)
	if err != nil {
		return FileIssues{}, err
	}
	return a.detectIn(p, path, content)
}

func (a *Analyzer) detectIn(p *tsparse.Parser, path string, content []byte) (FileIssues, error) {
	lang := tsparse.DetectLanguage(path)
	if lang == tsparse.LangUnknown {
		return FileIssues{}, fmt.Errorf("%s: %w", path, tsparse.ErrUnsupportedLanguage)
	}
	if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
		return FileIssues{}, fmt.Errorf("%s: %d bytes: %w", path, len(content), tsparse.ErrFileTooLarge)
	}
	result, err := p.Parse(content, lang, path)
	if err != nil {
		return FileIssues{}, err
	}

	fi := FileIssues{Path: path, Detections: make([]Detection, 0)}
	syntax.Walk(result.Root, func(n *syntax.Node) bool {
		if det, ok := a.detector.Inspect(n); ok && a.wants(det.Kind.Category()) {
			fi.Detections = append(fi.Detections, det)
		}
		return true
	})
	return fi, nil
}

func (a *Analyzer) wants(c Category) bool {
	if a.categories == nil {
		return true
	}
	return a.categories[c]
}

// Close releases the analyzer's parser.
func (a *Analyzer) Close() {
	a.parser.Close()
}
