package rdfgraph

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSubGraphCycle is returned when registering a sub-graph would make a graph
// reachable from itself.
var ErrSubGraphCycle = errors.New("sub-graph would create a cycle")

// Graph is an immutable set of statements plus any number of constituent
// sub-graphs. Queries see the deduplicated union of the graph and everything
// reachable through its sub-graphs. Graph is safe for concurrent use.
type Graph struct {
	id       string
	base     *store
	prefixes map[string]string

	mu   sync.RWMutex
	subs []*Graph
}

// New returns an empty graph.
func New() *Graph {
	return newGraph(newStore(), nil)
}

func newGraph(st *store, prefixes map[string]string) *Graph {
	if prefixes == nil {
		prefixes = make(map[string]string)
	}
	return &Graph{
		id:       uuid.New().String(),
		base:     st,
		prefixes: prefixes,
	}
}

// ID returns the unique identifier assigned when the graph was built.
func (g *Graph) ID() string {
	return g.id
}

// AddSubGraph registers other as a constituent of g. Its statements become
// visible through g. Registering g itself, or a graph that already reaches g,
// fails with ErrSubGraphCycle. Registering the same graph twice is a no-op.
func (g *Graph) AddSubGraph(other *Graph) error {
	if other == nil {
		return errors.New("nil sub-graph")
	}
	if other == g || other.reaches(g) {
		return ErrSubGraphCycle
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.subs {
		if s == other {
			return nil
		}
	}
	g.subs = append(g.subs, other)
	return nil
}

// SubGraphs returns the directly registered constituents in registration order.
func (g *Graph) SubGraphs() []*Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Graph, len(g.subs))
	copy(out, g.subs)
	return out
}

// Reaches reports whether other is g or is reachable through g's sub-graphs.
func (g *Graph) Reaches(other *Graph) bool {
	return g == other || g.reaches(other)
}

func (g *Graph) reaches(target *Graph) bool {
	for _, sg := range g.closure()[1:] {
		if sg == target {
			return true
		}
	}
	return false
}

// closure returns g followed by every reachable sub-graph, each exactly once,
// in breadth-first registration order. Traversal is iterative so long
// accumulation chains do not grow the stack.
func (g *Graph) closure() []*Graph {
	visited := map[*Graph]struct{}{g: {}}
	order := []*Graph{g}
	for i := 0; i < len(order); i++ {
		for _, sg := range order[i].SubGraphs() {
			if _, ok := visited[sg]; ok {
				continue
			}
			visited[sg] = struct{}{}
			order = append(order, sg)
		}
	}
	return order
}

// each visits every distinct statement of the union that matches the bound
// positions. fn returning false stops the walk.
func (g *Graph) each(subj, pred, obj *Term, fn func(Triple) bool) {
	graphs := g.closure()
	if len(graphs) == 1 {
		g.base.each(subj, pred, obj, fn)
		return
	}

	seen := make(map[Triple]struct{})
	for _, sg := range graphs {
		more := sg.base.each(subj, pred, obj, func(t Triple) bool {
			if _, dup := seen[t]; dup {
				return true
			}
			seen[t] = struct{}{}
			return fn(t)
		})
		if !more {
			return
		}
	}
}

// Find returns the statements matching the bound positions; nil positions are
// wildcards.
func (g *Graph) Find(subj, pred, obj *Term) []Triple {
	var out []Triple
	g.each(subj, pred, obj, func(t Triple) bool {
		out = append(out, t)
		return true
	})
	return out
}

// Contains reports whether the statement is in the union.
func (g *Graph) Contains(t Triple) bool {
	found := false
	g.each(&t.S, &t.P, &t.O, func(Triple) bool {
		found = true
		return false
	})
	return found
}

// Triples returns every statement of the union.
func (g *Graph) Triples() []Triple {
	return g.Find(nil, nil, nil)
}

// Len returns the number of distinct statements in the union.
func (g *Graph) Len() int {
	n := 0
	g.each(nil, nil, nil, func(Triple) bool {
		n++
		return true
	})
	return n
}

// OwnTriples returns the statements parsed into g itself, excluding
// sub-graphs, in insertion order.
func (g *Graph) OwnTriples() []Triple {
	return append([]Triple(nil), g.base.triples...)
}

// OwnLen returns the number of statements parsed into g itself.
func (g *Graph) OwnLen() int {
	return len(g.base.triples)
}

// Depth returns the length of the longest sub-graph chain below g.
func (g *Graph) Depth() int {
	return g.depth(make(map[*Graph]int))
}

func (g *Graph) depth(memo map[*Graph]int) int {
	if d, ok := memo[g]; ok {
		return d
	}
	d := 0
	for _, sg := range g.SubGraphs() {
		if v := sg.depth(memo) + 1; v > d {
			d = v
		}
	}
	memo[g] = d
	return d
}

// Derive returns a new graph sharing g's own statements and prefixes with a
// copy of its sub-graph list. The result has a fresh ID.
func (g *Graph) Derive() *Graph {
	d := newGraph(g.base, g.prefixes)
	d.subs = g.SubGraphs()
	return d
}

// NamespacePrefixes returns the prefix bindings declared by the source
// documents of the union. Bindings nearer the root win.
func (g *Graph) NamespacePrefixes() map[string]string {
	out := make(map[string]string)
	graphs := g.closure()
	for i := len(graphs) - 1; i >= 0; i-- {
		for p, ns := range graphs[i].prefixes {
			out[p] = ns
		}
	}
	return out
}
