package graph

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrInternal marks invariant violations that indicate a bug rather than
// bad input. Callers should treat these as fatal.
var ErrInternal = errors.New("internal graph invariant violated")

// ErrCondensationCyclic reports a cycle in the condensation graph, which is
// acyclic for any correct SCC partition.
var ErrCondensationCyclic = errors.New("condensation contains a cycle")

// ErrPartitionViolation reports a module missing from the SCC partition.
var ErrPartitionViolation = errors.New("module missing from component partition")

// StronglyConnectedComponents returns the SCC partition of the graph using
// Tarjan's algorithm on an explicit stack, so arbitrarily deep dependency
// chains cannot overflow the goroutine stack. Components are emitted in
// reverse topological order: a component appears before every component
// that depends on it.
func (g *Graph) StronglyConnectedComponents() [][]string {
	n := len(g.modules)
	if n == 0 {
		return [][]string{}
	}

	adj := g.intAdjacency()

	const unvisited = 0
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	stack := make([]int, 0, n)
	counter := 0

	components := make([][]string, 0)

	type frame struct {
		v    int
		next int
	}

	for start := 0; start < n; start++ {
		if index[start] != unvisited {
			continue
		}
		work := []frame{{v: start}}
		for len(work) > 0 {
			f := &work[len(work)-1]
			v := f.v

			if f.next == 0 {
				counter++
				index[v] = counter
				lowlink[v] = counter
				stack = append(stack, v)
				onStack[v] = true
			}

			descended := false
			for f.next < len(adj[v]) {
				w := adj[v][f.next]
				f.next++
				if index[w] == unvisited {
					work = append(work, frame{v: w})
					descended = true
					break
				}
				if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
			if descended {
				continue
			}

			if lowlink[v] == index[v] {
				var comp []string
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, g.modules[w])
					if w == v {
						break
					}
				}
				components = append(components, comp)
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[v] < lowlink[parent.v] {
					lowlink[parent.v] = lowlink[v]
				}
			}
		}
	}
	return components
}

// Cycles returns only the components that form cycles: size above one, or a
// single module that depends on itself through a longer path (never a bare
// self-edge, which AddDependency rejects).
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 {
			cycles = append(cycles, comp)
		}
	}
	return cycles
}

// Condensation is the graph of strongly connected components. Component
// indices follow the emission order of StronglyConnectedComponents, so
// dependencies have lower indices than their dependents.
type Condensation struct {
	Components [][]string
	compOf     map[string]int
	edges      [][]int
}

// Condense collapses each SCC into a single node and verifies the result is
// a DAG covering every module. A failed check wraps ErrInternal: it means
// the SCC computation itself is broken, not that the input is bad.
func (g *Graph) Condense() (*Condensation, error) {
	components := g.StronglyConnectedComponents()

	compOf := make(map[string]int, len(g.modules))
	for i, comp := range components {
		for _, m := range comp {
			compOf[m] = i
		}
	}
	for _, m := range g.modules {
		if _, ok := compOf[m]; !ok {
			return nil, fmt.Errorf("%w: %w: %s", ErrInternal, ErrPartitionViolation, m)
		}
	}

	edges := make([][]int, len(components))
	seen := make(map[[2]int]bool)
	for _, m := range g.modules {
		from := compOf[m]
		for _, d := range g.deps[m] {
			to := compOf[d]
			if from == to {
				continue
			}
			key := [2]int{from, to}
			if seen[key] {
				continue
			}
			seen[key] = true
			edges[from] = append(edges[from], to)
		}
	}

	if err := checkAcyclic(len(components), edges); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return &Condensation{
		Components: components,
		compOf:     compOf,
		edges:      edges,
	}, nil
}

// checkAcyclic verifies the component graph sorts topologically.
func checkAcyclic(n int, edges [][]int) error {
	dg := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		dg.AddNode(simple.Node(int64(i)))
	}
	for from, tos := range edges {
		for _, to := range tos {
			dg.SetEdge(simple.Edge{F: simple.Node(int64(from)), T: simple.Node(int64(to))})
		}
	}
	if _, err := topo.Sort(dg); err != nil {
		return fmt.Errorf("%w: %v", ErrCondensationCyclic, err)
	}
	return nil
}

// Size returns the number of components.
func (c *Condensation) Size() int {
	return len(c.Components)
}

// ComponentOf returns the component index containing module.
func (c *Condensation) ComponentOf(module string) (int, bool) {
	i, ok := c.compOf[module]
	return i, ok
}

// DependsOn returns the component indices that component i depends on.
func (c *Condensation) DependsOn(i int) []int {
	if i < 0 || i >= len(c.edges) {
		return nil
	}
	out := make([]int, len(c.edges[i]))
	copy(out, c.edges[i])
	return out
}

// Dependents returns the component indices that depend on component i.
func (c *Condensation) Dependents(i int) []int {
	var out []int
	for from, tos := range c.edges {
		for _, to := range tos {
			if to == i {
				out = append(out, from)
				break
			}
		}
	}
	return out
}
