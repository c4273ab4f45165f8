package graph

import "github.com/RoaringBitmap/roaring/v2"

// Reachable returns every module reachable from start along dependency
// edges, including start itself, in breadth-first discovery order. Unknown
// modules yield nil.
func (g *Graph) Reachable(start string) []string {
	return g.traverse(start, g.intAdjacency())
}

// TransitiveDependencies returns everything name depends on, directly or
// indirectly.
func (g *Graph) TransitiveDependencies(name string) []string {
	r := g.Reachable(name)
	if len(r) == 0 {
		return nil
	}
	return r[1:]
}

// TransitiveDependents returns every module that depends on name, directly
// or indirectly.
func (g *Graph) TransitiveDependents(name string) []string {
	n := len(g.modules)
	reverse := make([][]int, n)
	for v, deps := range g.intAdjacency() {
		for _, w := range deps {
			reverse[w] = append(reverse[w], v)
		}
	}
	r := g.traverse(name, reverse)
	if len(r) == 0 {
		return nil
	}
	return r[1:]
}

// traverse is a BFS with a roaring visited set, which stays compact on
// large sparse graphs.
func (g *Graph) traverse(start string, adj [][]int) []string {
	s, ok := g.index[start]
	if !ok {
		return nil
	}

	visited := roaring.New()
	visited.Add(uint32(s))
	order := []string{start}
	queue := []int{s}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if visited.Contains(uint32(w)) {
				continue
			}
			visited.Add(uint32(w))
			order = append(order, g.modules[w])
			queue = append(queue, w)
		}
	}
	return order
}
