package graph

import (
	"math"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// PageRank defaults. Iteration stops when the total rank movement drops
// below Tolerance or MaxIterations is reached.
const (
	DampingFactor = 0.85
	Tolerance     = 1e-6
	MaxIterations = 100
)

// pageRankDenseThreshold is the largest graph handed to the dense solver.
const pageRankDenseThreshold = 512

// PageRank ranks modules by dependency importance with default parameters.
// Rank flows along dependency edges, so widely depended-on modules score
// high. Ranks sum to 1.
func (g *Graph) PageRank() map[string]float64 {
	return g.PageRankWith(DampingFactor, Tolerance, MaxIterations)
}

// PageRankWith is PageRank with explicit damping, tolerance, and iteration
// cap. Rank held by modules with no dependencies is redistributed uniformly
// each round instead of being lost.
func (g *Graph) PageRankWith(damping, tol float64, maxIter int) map[string]float64 {
	n := len(g.modules)
	if n == 0 {
		return map[string]float64{}
	}
	if damping <= 0 || damping >= 1 {
		damping = DampingFactor
	}
	if tol <= 0 {
		tol = Tolerance
	}
	if maxIter <= 0 {
		maxIter = MaxIterations
	}

	if n <= pageRankDenseThreshold {
		return g.pageRankDense(damping, tol)
	}
	return g.pageRankSparse(damping, tol, maxIter)
}

// pageRankDense delegates to gonum's solver.
func (g *Graph) pageRankDense(damping, tol float64) map[string]float64 {
	dg := simple.NewDirectedGraph()
	for i := range g.modules {
		dg.AddNode(simple.Node(int64(i)))
	}
	for i, m := range g.modules {
		for _, d := range g.deps[m] {
			dg.SetEdge(simple.Edge{F: simple.Node(int64(i)), T: simple.Node(int64(g.index[d]))})
		}
	}

	ranks := network.PageRank(dg, damping, tol)

	out := make(map[string]float64, len(g.modules))
	for id, rank := range ranks {
		out[g.modules[int(id)]] = rank
	}
	return out
}

// pageRankSparse runs power iteration over the adjacency lists, avoiding
// the dense transition matrix for large graphs.
func (g *Graph) pageRankSparse(damping, tol float64, maxIter int) map[string]float64 {
	n := len(g.modules)
	adj := g.intAdjacency()

	rank := make([]float64, n)
	next := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range rank {
		rank[i] = initial
	}
	base := (1.0 - damping) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		for i := range next {
			next[i] = 0
		}
		dangling := 0.0
		for v := 0; v < n; v++ {
			if len(adj[v]) == 0 {
				dangling += rank[v]
				continue
			}
			share := rank[v] / float64(len(adj[v]))
			for _, w := range adj[v] {
				next[w] += share
			}
		}
		danglingShare := dangling / float64(n)

		delta := 0.0
		for i := 0; i < n; i++ {
			v := base + damping*(next[i]+danglingShare)
			delta += math.Abs(v - rank[i])
			rank[i] = v
		}
		if delta < tol {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, m := range g.modules {
		out[m] = rank[i]
	}
	return out
}
