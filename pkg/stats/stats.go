// Package stats provides the small statistical helpers shared by analyzers.
package stats

import "sort"

// Percentile returns the p-th percentile of values. The input is not
// modified; a sorted copy is taken internally. Out-of-range p is clamped to
// [0, 100], and an empty input yields 0.
func Percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
