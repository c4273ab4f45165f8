// Package graph models the module dependency graph and the structural
// queries the planner and repo map are built on: coupling, strongly
// connected components, condensation, topological ordering, PageRank, and
// reachability.
package graph

import "strings"

// Graph is a directed dependency graph over named modules. An edge from A
// to B means A depends on B. Module and edge order follow first insertion,
// so identical build sequences produce identical traversals.
type Graph struct {
	modules []string
	index   map[string]int
	deps    map[string][]string
	depSet  map[string]map[string]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		modules: make([]string, 0),
		index:   make(map[string]int),
		deps:    make(map[string][]string),
		depSet:  make(map[string]map[string]bool),
	}
}

// AddModule registers a module. Re-adding an existing module is a no-op.
func (g *Graph) AddModule(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.modules)
	g.modules = append(g.modules, name)
	g.deps[name] = nil
	g.depSet[name] = make(map[string]bool)
}

// AddDependency records that from depends on to, registering both modules.
// Self-edges and duplicate edges are ignored.
func (g *Graph) AddDependency(from, to string) {
	if from == to {
		return
	}
	g.AddModule(from)
	g.AddModule(to)
	if g.depSet[from][to] {
		return
	}
	g.depSet[from][to] = true
	g.deps[from] = append(g.deps[from], to)
}

// HasModule reports whether name is registered.
func (g *Graph) HasModule(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.modules)
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, m := range g.modules {
		n += len(g.deps[m])
	}
	return n
}

// Modules returns all modules in insertion order.
func (g *Graph) Modules() []string {
	out := make([]string, len(g.modules))
	copy(out, g.modules)
	return out
}

// Dependencies returns the modules name depends on, in edge insertion order.
func (g *Graph) Dependencies(name string) []string {
	deps := g.deps[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns the modules that depend on name, in module insertion
// order.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, m := range g.modules {
		if g.depSet[m][name] {
			out = append(out, m)
		}
	}
	return out
}

// Coupling holds a module's afferent (incoming) and efferent (outgoing)
// dependency counts.
type Coupling struct {
	Afferent int `json:"afferent"`
	Efferent int `json:"efferent"`
}

// Total returns combined coupling, the planner's per-module risk input.
func (c Coupling) Total() int {
	return c.Afferent + c.Efferent
}

// Instability returns Ce/(Ca+Ce), 0 for isolated modules.
func (c Coupling) Instability() float64 {
	total := c.Afferent + c.Efferent
	if total == 0 {
		return 0
	}
	return float64(c.Efferent) / float64(total)
}

// Coupling computes afferent and efferent counts for every module.
func (g *Graph) Coupling() map[string]Coupling {
	out := make(map[string]Coupling, len(g.modules))
	for _, m := range g.modules {
		c := out[m]
		c.Efferent = len(g.deps[m])
		out[m] = c
		for _, d := range g.deps[m] {
			dc := out[d]
			dc.Afferent++
			out[d] = dc
		}
	}
	return out
}

// Mermaid renders the graph as a Mermaid flowchart.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, m := range g.modules {
		b.WriteString("    " + sanitizeMermaidID(m) + "[\"" + m + "\"]\n")
	}
	for _, m := range g.modules {
		for _, d := range g.deps[m] {
			b.WriteString("    " + sanitizeMermaidID(m) + " --> " + sanitizeMermaidID(d) + "\n")
		}
	}
	return b.String()
}

// sanitizeMermaidID makes a module name safe for Mermaid.
func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// intAdjacency precomputes index-based adjacency in edge insertion order.
func (g *Graph) intAdjacency() [][]int {
	adj := make([][]int, len(g.modules))
	for i, m := range g.modules {
		deps := g.deps[m]
		if len(deps) == 0 {
			continue
		}
		adj[i] = make([]int, 0, len(deps))
		for _, d := range deps {
			adj[i] = append(adj[i], g.index[d])
		}
	}
	return adj
}
