package graph

// TopologicalSort orders modules so that every module appears after its
// dependencies, using Kahn's algorithm. When several modules are ready at
// once, the one with the lowest score wins; scores that tie fall back to
// insertion order. A nil score ranks everything equally.
//
// If the graph has cycles the returned order is the longest prefix that
// respects dependencies and complete is false.
func (g *Graph) TopologicalSort(score func(module string) float64) (order []string, complete bool) {
	n := len(g.modules)
	order = make([]string, 0, n)
	if n == 0 {
		return order, true
	}

	remaining := make([]int, n)
	dependents := make([][]int, n)
	adj := g.intAdjacency()
	for v, deps := range adj {
		remaining[v] = len(deps)
		for _, w := range deps {
			dependents[w] = append(dependents[w], v)
		}
	}

	ready := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if remaining[v] == 0 {
			ready = append(ready, v)
		}
	}

	scoreOf := func(v int) float64 {
		if score == nil {
			return 0
		}
		return score(g.modules[v])
	}

	for len(ready) > 0 {
		best := 0
		bestScore := scoreOf(ready[0])
		for i := 1; i < len(ready); i++ {
			s := scoreOf(ready[i])
			if s < bestScore || (s == bestScore && ready[i] < ready[best]) {
				best = i
				bestScore = s
			}
		}
		v := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, g.modules[v])

		for _, w := range dependents[v] {
			remaining[w]--
			if remaining[w] == 0 {
				ready = append(ready, w)
			}
		}
	}

	return order, len(order) == n
}
