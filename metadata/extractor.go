// Package metadata derives class, property and domain/range metadata from a
// loaded graph.
//
// Range and domain queries scan the property index on every call; nothing is
// cached between calls.
package metadata

import (
	"context"
	"os"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/c360studio/semkb/codec"
	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// PropertyRelation is a derived (property, domain, range) fact. Domain is
// empty when the property declares no named domain.
type PropertyRelation struct {
	Property string `json:"property"`
	Domain   string `json:"domain,omitempty"`
	Range    string `json:"range"`
}

// Extractor computes metadata over a caller-owned graph.
type Extractor struct {
	g *rdfgraph.Graph
}

// NewExtractor returns an extractor over g.
func NewExtractor(g *rdfgraph.Graph) *Extractor {
	return &Extractor{g: g}
}

// Load parses content in the format named by token.
func Load(ctx context.Context, engine *codec.Engine, content []byte, token string) (*Extractor, error) {
	f, err := format.ResolveFormat(token)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		engine = codec.NewEngine(nil, nil)
	}
	g, err := engine.Parse(ctx, content, f)
	if err != nil {
		return nil, err
	}
	return NewExtractor(g), nil
}

// LoadFile parses the file at path, taking the format from its extension.
func LoadFile(ctx context.Context, engine *codec.Engine, path string) (*Extractor, error) {
	f, _, err := format.FromPath(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, rdfgraph.NewParseError(rdfgraph.ConnectionRefused, f, path, err)
	}
	if engine == nil {
		engine = codec.NewEngine(nil, nil)
	}
	g, err := engine.ParseSource(ctx, path, content, f)
	if err != nil {
		return nil, err
	}
	return NewExtractor(g), nil
}

// Graph returns the underlying graph.
func (e *Extractor) Graph() *rdfgraph.Graph {
	return e.g
}

// ListClasses returns every named class in the graph's class index.
func (e *Extractor) ListClasses() mapset.Set[string] {
	return mapset.NewSet(e.g.Classes()...)
}

// ListProperties returns every named property in the graph's property index.
func (e *Extractor) ListProperties() mapset.Set[string] {
	return mapset.NewSet(e.g.Properties()...)
}

// ListPropertiesWithRange returns the properties whose first declared range is
// exactly classURI. Subclasses are not considered, and properties without a
// declared range are skipped.
func (e *Extractor) ListPropertiesWithRange(classURI string) mapset.Set[string] {
	out := mapset.NewSet[string]()
	for _, p := range e.g.Properties() {
		if rangeURI(e.g, p) == classURI && classURI != "" {
			out.Add(p)
		}
	}
	return out
}

// ListClassesThatCanBeRangeOfClass returns the union of the named domains of
// every property whose range is classURI. Despite the name these are the
// classes that can point into classURI, not ranges themselves.
func (e *Extractor) ListClassesThatCanBeRangeOfClass(classURI string) mapset.Set[string] {
	out := mapset.NewSet[string]()
	for _, p := range e.ListPropertiesWithRange(classURI).ToSlice() {
		for _, d := range e.g.Domains(p) {
			if uri, ok := d.URI(); ok {
				out.Add(uri)
			}
		}
	}
	return out
}

// Relations returns one PropertyRelation per named domain of every property
// with a named range, in property index order.
func (e *Extractor) Relations() []PropertyRelation {
	var out []PropertyRelation
	for _, p := range e.g.Properties() {
		rng := rangeURI(e.g, p)
		if rng == "" {
			continue
		}
		added := false
		for _, d := range e.g.Domains(p) {
			if uri, ok := d.URI(); ok {
				out = append(out, PropertyRelation{Property: p, Domain: uri, Range: rng})
				added = true
			}
		}
		if !added {
			out = append(out, PropertyRelation{Property: p, Range: rng})
		}
	}
	return out
}

// NamespacePrefixes returns the prefix bindings declared by the source document.
func (e *Extractor) NamespacePrefixes() map[string]string {
	return e.g.NamespacePrefixes()
}

// rangeURI returns the URI of the declared range of p, or "" when p has none
// or its range is anonymous.
func rangeURI(g *rdfgraph.Graph, p string) string {
	r, ok := g.Range(p)
	if !ok {
		return ""
	}
	uri, _ := r.URI()
	return uri
}
