// Package analyzer provides the shared contract and parallel scaffolding for
// file-based analyzers.
package analyzer

import "context"

// FileAnalyzer is implemented by every analyzer that consumes a set of source
// files and produces a typed result.
type FileAnalyzer[T any] interface {
	// Analyze processes a collection of files and returns the analysis result.
	// The context carries cancellation and optional progress tracking.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
