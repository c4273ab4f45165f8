package fingerprint

import (
	"context"
	"fmt"

	"github.com/corvida/augur/pkg/analyzer"
	"github.com/corvida/augur/pkg/source"
	"github.com/corvida/augur/pkg/syntax/tsparse"
)

// Analyzer fingerprints whole files and groups structural duplicates.
type Analyzer struct {
	parser      *tsparse.Parser
	src         source.ContentSource
	maxDepth    int
	minTokens   int
	maxFileSize int64
	workers     int
}

var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithMaxDepth sets the normalization depth cap.
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) {
		if depth > 0 {
			a.maxDepth = depth
		}
	}
}

// WithMinTokens skips files whose token stream is shorter than minTokens,
// which keeps near-empty files out of the duplicate groups.
func WithMinTokens(minTokens int) Option {
	return func(a *Analyzer) { a.minTokens = minTokens }
}

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

// New creates a fingerprint analyzer with the default depth cap.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser:   tsparse.New(),
		src:      source.NewFilesystem(""),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fingerprints files in parallel and groups identical hashes.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	analysis := NewAnalysis()
	if len(files) == 0 {
		analysis.CalculateSummary()
		return analysis, nil
	}

	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(len(files))
	}

	type outcome struct {
		fp   FileFingerprint
		skip bool
		err  error
	}

	results := analyzer.MapFilesN(files, a.workers, func(p *tsparse.Parser, path string) (outcome, error) {
		if err := ctx.Err(); err != nil {
			return outcome{}, err
		}
		fp, err := a.fingerprintFile(p, path)
		if err != nil {
			return outcome{err: err}, nil
		}
		return outcome{fp: fp, skip: a.minTokens > 0 && fp.Tokens < a.minTokens}, nil
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
		if r.skip {
			continue
		}
		analysis.Files = append(analysis.Files, r.fp)
	}
	analysis.CalculateSummary()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analysis, nil
}

// FingerprintSource fingerprints one in-memory source. Not safe for
// concurrent use; it shares the analyzer's own parser.
func (a *Analyzer) FingerprintSource(path string, content []byte) (FileFingerprint, error) {
	return a.fingerprintContent(a.parser, path, content)
}

func (a *Analyzer) fingerprintFile(p *tsparse.Parser, path string) (FileFingerprint, error) {
	content, err := a.src.ReadFile(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return a.fingerprintContent(p, path, content)
}

func (a *Analyzer) fingerprintContent(p *tsparse.Parser, path string, content []byte) (FileFingerprint, error) {
	lang := tsparse.DetectLanguage(path)
	if lang == tsparse.LangUnknown {
		return FileFingerprint{}, fmt.Errorf("%s: %w", path, tsparse.ErrUnsupportedLanguage)
	}
	if a.maxFileSize > 0 && int64(len(content)) > a.maxFileSize {
		return FileFingerprint{}, fmt.Errorf("%s: %d bytes: %w", path, len(content), tsparse.ErrFileTooLarge)
	}
	result, err := p.Parse(content, lang, path)
	if err != nil {
		return FileFingerprint{}, err
	}

	tokens := Tokenize(NormalizeDepth(result.Root, a.maxDepth))
	return FileFingerprint{
		Path:        path,
		Fingerprint: xxhashJoin(tokens),
		Tokens:      len(tokens),
	}, nil
}

// Close releases the analyzer's parser.
func (a *Analyzer) Close() {
	a.parser.Close()
}
