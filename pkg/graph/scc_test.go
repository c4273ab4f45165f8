package graph

import (
	"fmt"
	"sort"
	"strings"
	"testing"
)

// canonical renders an SCC partition order-independently for comparison.
func canonical(comps [][]string) []string {
	out := make([]string, 0, len(comps))
	for _, comp := range comps {
		members := append([]string(nil), comp...)
		sort.Strings(members)
		out = append(out, strings.Join(members, ","))
	}
	sort.Strings(out)
	return out
}

func TestSCCAcyclicChain(t *testing.T) {
	// A has no deps; B depends on A; C depends on B.
	g := New()
	g.AddModule("A")
	g.AddDependency("B", "A")
	g.AddDependency("C", "B")

	comps := g.StronglyConnectedComponents()
	if len(comps) != 3 {
		t.Fatalf("components = %v, want 3 singletons", comps)
	}
	for _, comp := range comps {
		if len(comp) != 1 {
			t.Errorf("component %v should be a singleton", comp)
		}
	}
	// Reverse topological emission: dependencies before dependents.
	if comps[0][0] != "A" || comps[1][0] != "B" || comps[2][0] != "C" {
		t.Errorf("emission order = %v, want [[A] [B] [C]]", comps)
	}
}

func TestSCCTwoModuleCycle(t *testing.T) {
	g := New()
	g.AddDependency("A", "B")
	g.AddDependency("B", "A")

	comps := g.StronglyConnectedComponents()
	if len(comps) != 1 {
		t.Fatalf("components = %v, want one", comps)
	}
	if len(comps[0]) != 2 {
		t.Errorf("component = %v, want both modules", comps[0])
	}
}

func TestSCCMixed(t *testing.T) {
	// Cycle {a, b, c}, plus d depending into it and e standalone.
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "c")
	g.AddDependency("c", "a")
	g.AddDependency("d", "a")
	g.AddModule("e")

	comps := g.StronglyConnectedComponents()
	got := canonical(comps)
	want := []string{"a,b,c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("partition = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("partition[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	cycles := g.Cycles()
	if len(cycles) != 1 || len(cycles[0]) != 3 {
		t.Errorf("Cycles() = %v, want one 3-cycle", cycles)
	}
}

func TestSCCPartitionCoversEveryModule(t *testing.T) {
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "c")
	g.AddDependency("c", "a")
	g.AddDependency("d", "b")
	g.AddDependency("e", "d")
	g.AddModule("f")

	comps := g.StronglyConnectedComponents()
	seen := make(map[string]int)
	for _, comp := range comps {
		for _, m := range comp {
			seen[m]++
		}
	}
	for _, m := range g.Modules() {
		if seen[m] != 1 {
			t.Errorf("module %s appears %d times in partition, want exactly once", m, seen[m])
		}
	}
}

func TestSCCPartitionPermutationInvariant(t *testing.T) {
	edges := [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"d", "a"}, {"e", "d"}, {"c", "e"},
		{"f", "g"},
	}

	g1 := New()
	for _, e := range edges {
		g1.AddDependency(e[0], e[1])
	}

	// Same edges, reversed insertion order.
	g2 := New()
	for i := len(edges) - 1; i >= 0; i-- {
		g2.AddDependency(edges[i][0], edges[i][1])
	}

	p1 := canonical(g1.StronglyConnectedComponents())
	p2 := canonical(g2.StronglyConnectedComponents())
	if len(p1) != len(p2) {
		t.Fatalf("partitions differ: %v vs %v", p1, p2)
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Errorf("partition[%d]: %q vs %q", i, p1[i], p2[i])
		}
	}
}

func TestSCCDeepChainNoOverflow(t *testing.T) {
	const n = 100_000
	g := chainGraph(n)

	comps := g.StronglyConnectedComponents()
	if len(comps) != n {
		t.Fatalf("components = %d, want %d", len(comps), n)
	}
	// The sink is emitted first, the root last.
	if comps[0][0] != fmt.Sprintf("m%d", n-1) {
		t.Errorf("first component = %v, want the chain sink", comps[0])
	}
	if comps[n-1][0] != "m0" {
		t.Errorf("last component = %v, want the chain root", comps[n-1])
	}
}

func TestSCCEmptyGraph(t *testing.T) {
	g := New()
	comps := g.StronglyConnectedComponents()
	if comps == nil || len(comps) != 0 {
		t.Errorf("components = %v, want empty non-nil", comps)
	}
}

func TestCondenseAcyclicInput(t *testing.T) {
	g := New()
	g.AddModule("A")
	g.AddDependency("B", "A")
	g.AddDependency("C", "B")

	c, err := g.Condense()
	if err != nil {
		t.Fatalf("Condense() error = %v", err)
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}

	ci, ok := c.ComponentOf("C")
	if !ok {
		t.Fatal("ComponentOf(C) missing")
	}
	bi, _ := c.ComponentOf("B")
	deps := c.DependsOn(ci)
	if len(deps) != 1 || deps[0] != bi {
		t.Errorf("DependsOn(C) = %v, want [%d]", deps, bi)
	}
}

func TestCondenseCollapsesCycle(t *testing.T) {
	// d -> {a b c cycle} -> e
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "c")
	g.AddDependency("c", "a")
	g.AddDependency("d", "a")
	g.AddDependency("c", "e")

	c, err := g.Condense()
	if err != nil {
		t.Fatalf("Condense() error = %v", err)
	}
	if c.Size() != 3 {
		t.Fatalf("Size() = %d, want 3 (cycle, d, e)", c.Size())
	}

	ai, _ := c.ComponentOf("a")
	bi, _ := c.ComponentOf("b")
	if ai != bi {
		t.Error("cycle members should share a component")
	}

	di, _ := c.ComponentOf("d")
	ei, _ := c.ComponentOf("e")
	deps := c.DependsOn(di)
	if len(deps) != 1 || deps[0] != ai {
		t.Errorf("DependsOn(d) = %v, want [cycle]", deps)
	}
	cycleDeps := c.DependsOn(ai)
	if len(cycleDeps) != 1 || cycleDeps[0] != ei {
		t.Errorf("DependsOn(cycle) = %v, want [e]", cycleDeps)
	}
	dependents := c.Dependents(ai)
	if len(dependents) != 1 || dependents[0] != di {
		t.Errorf("Dependents(cycle) = %v, want [d]", dependents)
	}
}

func TestCondenseDeduplicatesEdges(t *testing.T) {
	// Two members of the cycle each depend on e: one condensed edge.
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "a")
	g.AddDependency("a", "e")
	g.AddDependency("b", "e")

	c, err := g.Condense()
	if err != nil {
		t.Fatalf("Condense() error = %v", err)
	}
	ai, _ := c.ComponentOf("a")
	if deps := c.DependsOn(ai); len(deps) != 1 {
		t.Errorf("DependsOn(cycle) = %v, want a single deduplicated edge", deps)
	}
}

func TestCondenseComponentIndicesOrdered(t *testing.T) {
	// Component indices follow reverse topological emission, so every
	// dependency edge goes from a higher index to a lower one.
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "c")
	g.AddDependency("a", "d")
	g.AddDependency("d", "c")

	c, err := g.Condense()
	if err != nil {
		t.Fatalf("Condense() error = %v", err)
	}
	for from := 0; from < c.Size(); from++ {
		for _, to := range c.DependsOn(from) {
			if to >= from {
				t.Errorf("edge %d -> %d violates emission order", from, to)
			}
		}
	}
}

func TestCondenseEmptyGraph(t *testing.T) {
	g := New()
	c, err := g.Condense()
	if err != nil {
		t.Fatalf("Condense() error = %v", err)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}
