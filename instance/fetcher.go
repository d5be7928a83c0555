// Package instance lists the individuals of a graph together with their
// labels.
package instance

import "github.com/c360studio/semkb/rdfgraph"

// Record is an individual and its rdfs:label. Label is empty when the
// individual has none.
type Record struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// Fetcher reads individuals from a caller-owned graph.
type Fetcher struct {
	g *rdfgraph.Graph
}

// NewFetcher returns a fetcher over g.
func NewFetcher(g *rdfgraph.Graph) *Fetcher {
	return &Fetcher{g: g}
}

// ListClassURIs returns every named object of an rdf:type statement. Unlike
// the class index this includes types that are never declared as classes.
func (f *Fetcher) ListClassURIs() []string {
	var out []string
	for _, t := range f.g.TypeObjects() {
		if uri, ok := t.URI(); ok {
			out = append(out, uri)
		}
	}
	return out
}

// ListInstanceURIs returns the named individuals typed as classURI in graph
// enumeration order. Anonymous individuals are skipped.
func (f *Fetcher) ListInstanceURIs(classURI string) []Record {
	var out []Record
	for _, ind := range f.g.Individuals(classURI) {
		uri, ok := ind.URI()
		if !ok {
			continue
		}
		label, _ := f.g.Label(ind)
		out = append(out, Record{URI: uri, Label: label})
	}
	return out
}

// ListClassesAndInstances maps every type from ListClassURIs to its
// individuals, so undeclared classes of plain instance data are included.
// Types without named individuals have no entry.
func (f *Fetcher) ListClassesAndInstances() map[string][]Record {
	out := make(map[string][]Record)
	for _, class := range f.ListClassURIs() {
		if records := f.ListInstanceURIs(class); len(records) > 0 {
			out[class] = records
		}
	}
	return out
}
