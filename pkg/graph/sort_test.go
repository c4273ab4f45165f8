package graph

import (
	"fmt"
	"testing"
)

func TestTopologicalSortChain(t *testing.T) {
	// A has no deps; B depends on A; C depends on B.
	g := New()
	g.AddModule("A")
	g.AddDependency("B", "A")
	g.AddDependency("C", "B")

	order, complete := g.TopologicalSort(nil)
	if !complete {
		t.Fatal("acyclic graph should sort completely")
	}
	want := []string{"A", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	g := New()
	g.AddDependency("A", "B")
	g.AddDependency("B", "A")

	order, complete := g.TopologicalSort(nil)
	if complete {
		t.Error("cyclic graph should not sort completely")
	}
	if len(order) != 0 {
		t.Errorf("order = %v, want empty when nothing is ready", order)
	}
}

func TestTopologicalSortPartialOnCycle(t *testing.T) {
	// leaf is free; the cycle blocks the rest.
	g := New()
	g.AddDependency("a", "b")
	g.AddDependency("b", "a")
	g.AddDependency("a", "leaf")

	order, complete := g.TopologicalSort(nil)
	if complete {
		t.Error("graph with cycle should report incomplete")
	}
	if len(order) != 1 || order[0] != "leaf" {
		t.Errorf("order = %v, want [leaf]", order)
	}
}

func TestTopologicalSortScoreTieBreak(t *testing.T) {
	// Three independent modules; the score decides the order.
	g := New()
	g.AddModule("x")
	g.AddModule("y")
	g.AddModule("z")

	scores := map[string]float64{"x": 3, "y": 1, "z": 2}
	order, complete := g.TopologicalSort(func(m string) float64 { return scores[m] })
	if !complete {
		t.Fatal("sort should complete")
	}
	want := []string{"y", "z", "x"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTopologicalSortInsertionOrderOnEqualScores(t *testing.T) {
	g := New()
	g.AddModule("later")
	g.AddModule("earlier")

	// Insertion order breaks the tie, not name order.
	order, _ := g.TopologicalSort(func(string) float64 { return 5 })
	if order[0] != "later" || order[1] != "earlier" {
		t.Errorf("order = %v, want insertion order [later earlier]", order)
	}
}

func TestTopologicalSortRespectsDependenciesOverScore(t *testing.T) {
	// high depends on low; even with a tempting score, low must come first.
	g := New()
	g.AddDependency("high", "low")

	scores := map[string]float64{"high": 0, "low": 100}
	order, complete := g.TopologicalSort(func(m string) float64 { return scores[m] })
	if !complete {
		t.Fatal("sort should complete")
	}
	if order[0] != "low" || order[1] != "high" {
		t.Errorf("order = %v, want [low high]", order)
	}
}

func TestTopologicalSortEmptyGraph(t *testing.T) {
	g := New()
	order, complete := g.TopologicalSort(nil)
	if !complete {
		t.Error("empty graph should sort completely")
	}
	if order == nil || len(order) != 0 {
		t.Errorf("order = %v, want empty non-nil", order)
	}
}

func TestTopologicalSortDeepChain(t *testing.T) {
	const n = 100_000
	g := chainGraph(n)

	order, complete := g.TopologicalSort(nil)
	if !complete {
		t.Fatal("chain should sort completely")
	}
	if len(order) != n {
		t.Fatalf("order length = %d, want %d", len(order), n)
	}
	if order[0] != fmt.Sprintf("m%d", n-1) {
		t.Errorf("order[0] = %s, want the dependency sink", order[0])
	}
	if order[n-1] != "m0" {
		t.Errorf("order[last] = %s, want the chain root", order[n-1])
	}
}

func TestTopologicalSortPermutationStableUnderScores(t *testing.T) {
	// With distinct scores the result is independent of insertion order.
	edges := [][2]string{{"a", "c"}, {"b", "c"}}
	scores := map[string]float64{"a": 2, "b": 1, "c": 0}

	g1 := New()
	for _, e := range edges {
		g1.AddDependency(e[0], e[1])
	}
	g2 := New()
	for i := len(edges) - 1; i >= 0; i-- {
		g2.AddDependency(edges[i][0], edges[i][1])
	}

	score := func(m string) float64 { return scores[m] }
	o1, _ := g1.TopologicalSort(score)
	o2, _ := g2.TopologicalSort(score)

	if len(o1) != len(o2) {
		t.Fatalf("orders differ: %v vs %v", o1, o2)
	}
	for i := range o1 {
		if o1[i] != o2[i] {
			t.Errorf("order[%d]: %q vs %q", i, o1[i], o2[i])
		}
	}
}
