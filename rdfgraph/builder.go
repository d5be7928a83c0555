package rdfgraph

import "fmt"

// Builder accumulates statements for a new Graph. It is not safe for
// concurrent use.
type Builder struct {
	st       *store
	seen     map[Triple]struct{}
	prefixes map[string]string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		st:       newStore(),
		seen:     make(map[Triple]struct{}),
		prefixes: make(map[string]string),
	}
}

// Add appends a statement. Duplicates are ignored; the return value reports
// whether the statement was new. Statements with an illegal shape are rejected.
func (b *Builder) Add(t Triple) (bool, error) {
	if !t.Valid() {
		return false, fmt.Errorf("invalid statement %s", t)
	}
	if _, dup := b.seen[t]; dup {
		return false, nil
	}
	b.seen[t] = struct{}{}
	b.st.add(t)
	return true, nil
}

// AddTriple is Add for the three terms of a statement.
func (b *Builder) AddTriple(s, p, o Term) (bool, error) {
	return b.Add(NewTriple(s, p, o))
}

// SetPrefix records a namespace prefix binding. Later bindings for the same
// prefix replace earlier ones.
func (b *Builder) SetPrefix(prefix, namespace string) {
	b.prefixes[prefix] = namespace
}

// Len returns the number of distinct statements added so far.
func (b *Builder) Len() int {
	return len(b.st.triples)
}

// Build returns the graph. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	g := newGraph(b.st, b.prefixes)
	b.st = nil
	b.seen = nil
	b.prefixes = nil
	return g
}
