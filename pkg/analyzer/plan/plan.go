// Package plan computes a safe refactoring order over a module dependency
// graph. Strongly connected components are treated as atomic units, units
// are grouped into dependency-ordered phases by level, and each phase
// carries a risk score derived from cycle membership, coupling, and
// centrality.
package plan

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/corvida/augur/pkg/graph"
	"github.com/corvida/augur/pkg/stats"
)

// DefaultPercentile is the threshold percentile over afferent coupling and
// centrality that separates leaf modules from core modules.
const DefaultPercentile = 75

const (
	cycleBaseWeight   = 30.0
	cycleMemberWeight = 5.0
	centralityWeight  = 50.0
)

// Planner builds refactoring plans from dependency graphs. A Planner is
// stateless between runs and safe to reuse.
type Planner struct {
	percentile int
}

// Option configures a Planner.
type Option func(*Planner)

// WithPercentile overrides the leaf/core classification percentile. Values
// outside (0, 100) keep the default.
func WithPercentile(p int) Option {
	return func(pl *Planner) {
		if p > 0 && p < 100 {
			pl.percentile = p
		}
	}
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{percentile: DefaultPercentile}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan computes the refactoring order for g. The graph is read, never
// modified. An empty or nil graph yields an empty low-risk plan and no
// error. Returned errors wrap graph.ErrInternal and mean the component
// partition or phase grouping broke an invariant; they abort only this
// planning run.
func (p *Planner) Plan(g *graph.Graph) (*Plan, error) {
	out := &Plan{
		Phases:        []Phase{},
		EstimatedRisk: RiskLow,
		Cycles:        [][]string{},
		LeafNodes:     []string{},
		CoreNodes:     []string{},
	}
	if g == nil || g.Len() == 0 {
		return out, nil
	}

	cond, err := g.Condense()
	if err != nil {
		return nil, err
	}

	coupling := g.Coupling()
	ranks := g.PageRank()
	categories := p.classify(g, coupling, ranks)

	out.TotalModules = g.Len()
	out.Cycles = cyclesOf(cond)
	for _, m := range sortedModules(g) {
		switch categories[m] {
		case CategoryLeaf:
			out.LeafNodes = append(out.LeafNodes, m)
		case CategoryCore:
			out.CoreNodes = append(out.CoreNodes, m)
		}
	}

	levels := levelOrder(cond)
	phaseOf := make([]int, cond.Size())
	for order, level := range levels {
		for _, ci := range level {
			phaseOf[ci] = order
		}
	}

	maxScore := 0.0
	for order, level := range levels {
		ph := buildPhase(order, level, cond, coupling, ranks, categories)
		ph.Prerequisites = prerequisitesOf(level, cond, phaseOf)
		out.Phases = append(out.Phases, ph)
		if ph.RiskScore > maxScore {
			maxScore = ph.RiskScore
		}
	}
	out.EstimatedRisk = RiskFor(maxScore)

	if err := checkPhases(levels, cond.Size(), out.Phases); err != nil {
		return nil, err
	}
	return out, nil
}

// classify assigns each module a category by comparing its afferent coupling
// and centrality against percentile thresholds computed once over all
// modules. Both below: leaf. Both above: core. Everything else, including
// values sitting exactly on a threshold, is intermediate.
func (p *Planner) classify(g *graph.Graph, coupling map[string]graph.Coupling, ranks map[string]float64) map[string]Category {
	modules := g.Modules()
	afferent := make([]float64, 0, len(modules))
	centrality := make([]float64, 0, len(modules))
	for _, m := range modules {
		afferent = append(afferent, float64(coupling[m].Afferent))
		centrality = append(centrality, ranks[m])
	}
	caFloor := stats.Percentile(afferent, p.percentile)
	prFloor := stats.Percentile(centrality, p.percentile)

	categories := make(map[string]Category, len(modules))
	for _, m := range modules {
		ca := float64(coupling[m].Afferent)
		pr := ranks[m]
		switch {
		case ca < caFloor && pr < prFloor:
			categories[m] = CategoryLeaf
		case ca > caFloor && pr > prFloor:
			categories[m] = CategoryCore
		default:
			categories[m] = CategoryIntermediate
		}
	}
	return categories
}

// cyclesOf lists the multi-module components in dependency order, members
// sorted within each cycle.
func cyclesOf(cond *graph.Condensation) [][]string {
	cycles := [][]string{}
	for _, comp := range cond.Components {
		if len(comp) <= 1 {
			continue
		}
		members := append([]string(nil), comp...)
		sort.Strings(members)
		cycles = append(cycles, members)
	}
	return cycles
}

// levelOrder groups condensation components into levels by repeated removal
// of components with no unresolved dependencies. Components in a level are
// mutually independent; every dependency of a level sits in an earlier one.
func levelOrder(cond *graph.Condensation) [][]int {
	n := cond.Size()
	remaining := make([]int, n)
	dependents := make([][]int, n)
	for i := 0; i < n; i++ {
		deps := cond.DependsOn(i)
		remaining[i] = len(deps)
		for _, d := range deps {
			dependents[d] = append(dependents[d], i)
		}
	}

	current := []int{}
	for i := 0; i < n; i++ {
		if remaining[i] == 0 {
			current = append(current, i)
		}
	}

	var levels [][]int
	for len(current) > 0 {
		levels = append(levels, current)
		var next []int
		for _, i := range current {
			for _, d := range dependents[i] {
				remaining[d]--
				if remaining[d] == 0 {
					next = append(next, d)
				}
			}
		}
		sort.Ints(next)
		current = next
	}
	return levels
}

// buildPhase assembles one phase from the components of a level. Risk is
// cycle weight plus aggregate coupling plus centrality mass over members.
func buildPhase(order int, level []int, cond *graph.Condensation, coupling map[string]graph.Coupling, ranks map[string]float64, categories map[string]Category) Phase {
	ph := Phase{
		Order:         order,
		Modules:       []string{},
		Prerequisites: []int{},
	}

	score := 0.0
	hasCycle := false
	for _, ci := range level {
		members := cond.Components[ci]
		if len(members) > 1 {
			if !hasCycle {
				score += cycleBaseWeight
				hasCycle = true
			}
			if extra := len(members) - 2; extra > 0 {
				score += cycleMemberWeight * float64(extra)
			}
		}
		sorted := append([]string(nil), members...)
		sort.Strings(sorted)
		ph.Modules = append(ph.Modules, sorted...)
		for _, m := range members {
			score += float64(coupling[m].Total())
			score += centralityWeight * ranks[m]
		}
	}

	ph.RiskScore = score
	ph.RiskLevel = RiskFor(score)
	ph.CanParallelize = !hasCycle && len(ph.Modules) > 1
	ph.Category = phaseCategory(level, cond, categories, hasCycle)
	return ph
}

// phaseCategory is cycle when the phase holds a multi-module component,
// leaf or core when every member carries that classification, and
// intermediate otherwise.
func phaseCategory(level []int, cond *graph.Condensation, categories map[string]Category, hasCycle bool) Category {
	if hasCycle {
		return CategoryCycle
	}
	uniform := Category("")
	for _, ci := range level {
		for _, m := range cond.Components[ci] {
			c := categories[m]
			if uniform == "" {
				uniform = c
				continue
			}
			if c != uniform {
				return CategoryIntermediate
			}
		}
	}
	if uniform == CategoryLeaf || uniform == CategoryCore {
		return uniform
	}
	return CategoryIntermediate
}

// prerequisitesOf lists the earlier phases this level's components depend
// on, deduplicated and ascending.
func prerequisitesOf(level []int, cond *graph.Condensation, phaseOf []int) []int {
	set := make(map[int]bool)
	for _, ci := range level {
		for _, d := range cond.DependsOn(ci) {
			set[phaseOf[d]] = true
		}
	}
	out := make([]int, 0, len(set))
	for j := range set {
		out = append(out, j)
	}
	sort.Ints(out)
	return out
}

// checkPhases verifies the level grouping placed every component exactly
// once and that prerequisites only reference earlier phases. A failure
// wraps graph.ErrInternal: the plan cannot be trusted.
func checkPhases(levels [][]int, size int, phases []Phase) error {
	placed := roaring.New()
	for _, level := range levels {
		for _, ci := range level {
			if placed.Contains(uint32(ci)) {
				return fmt.Errorf("%w: component %d placed in two phases", graph.ErrInternal, ci)
			}
			placed.Add(uint32(ci))
		}
	}
	if got := int(placed.GetCardinality()); got != size {
		return fmt.Errorf("%w: %d of %d components placed in phases", graph.ErrInternal, got, size)
	}
	for _, ph := range phases {
		for _, pre := range ph.Prerequisites {
			if pre >= ph.Order {
				return fmt.Errorf("%w: phase %d lists phase %d as a prerequisite", graph.ErrInternal, ph.Order, pre)
			}
		}
	}
	return nil
}

// sortedModules returns the graph's modules in lexical order.
func sortedModules(g *graph.Graph) []string {
	modules := g.Modules()
	sort.Strings(modules)
	return modules
}
