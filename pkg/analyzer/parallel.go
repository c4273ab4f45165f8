package analyzer

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/corvida/augur/pkg/syntax/tsparse"
)

// TickFunc is called after each file is processed.
type TickFunc func()

// MapFiles processes files in parallel, calling fn for each file with a
// dedicated parser. Results are collected in arbitrary order; per-file errors
// are skipped so one bad file never aborts a run.
func MapFiles[T any](files []string, fn func(*tsparse.Parser, string) (T, error)) []T {
	return MapFilesN(files, 0, fn, nil)
}

// MapFilesN processes files with a configurable worker count and an optional
// per-file callback. maxWorkers <= 0 defaults to 2x NumCPU, which suits the
// mixed I/O and CGO workload of parsing.
func MapFilesN[T any](files []string, maxWorkers int, fn func(*tsparse.Parser, string) (T, error), onTick TickFunc) []T {
	if len(files) == 0 {
		return nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 2
	}

	results := make([]T, 0, len(files))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, path := range files {
		p.Go(func() {
			psr := tsparse.New()
			defer psr.Close()

			result, err := fn(psr, path)

			if onTick != nil {
				onTick()
			}

			if err != nil {
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}

// ForEachFile processes files in parallel without a parser. Use this for
// operations that read file content directly.
func ForEachFile[T any](files []string, fn func(string) (T, error)) []T {
	return ForEachFileN(files, 0, fn, nil)
}

// ForEachFileN is ForEachFile with a configurable worker count and optional
// per-file callback.
func ForEachFileN[T any](files []string, maxWorkers int, fn func(string) (T, error), onTick TickFunc) []T {
	if len(files) == 0 {
		return nil
	}

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * 2
	}

	results := make([]T, 0, len(files))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, path := range files {
		p.Go(func() {
			result, err := fn(path)

			if onTick != nil {
				onTick()
			}

			if err != nil {
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}
