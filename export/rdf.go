package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/c360studio/semkb/codec"
	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// ErrUnsupportedExport is returned for formats the exporter cannot write.
var ErrUnsupportedExport = errors.New("unsupported export format")

// Formats lists the formats Export can write.
var Formats = []format.Format{format.Turtle, format.NTriples, format.NQuads, format.JSONLD, format.RDFThrift}

// Exporter serialises graphs with a configurable profile.
type Exporter struct {
	profile  Profile
	prefixes map[string]string
}

// NewExporter creates a new exporter with the specified profile.
func NewExporter(profile Profile) *Exporter {
	return &Exporter{
		profile:  profile,
		prefixes: make(map[string]string),
	}
}

// SetPrefix adds a namespace binding on top of the graph's own prefixes.
func (e *Exporter) SetPrefix(prefix, iri string) {
	e.prefixes[prefix] = iri
}

// Export writes g to w in format f.
func (e *Exporter) Export(w io.Writer, g *rdfgraph.Graph, f format.Format) error {
	selected := Select(g, e.profile)
	triples := selected.Triples()

	switch f {
	case format.Turtle:
		tw := NewTurtleWriter()
		e.applyPrefixes(selected, tw.SetPrefix)
		return tw.Write(w, triples)
	case format.NTriples, format.NQuads:
		return NewNTriplesWriter().Write(w, triples)
	case format.JSONLD:
		jw := NewJSONLDWriter()
		e.applyPrefixes(selected, jw.SetPrefix)
		return jw.Write(w, triples)
	case format.RDFThrift:
		return codec.EncodeThrift(w, selected)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedExport, f)
	}
}

// ExportString is Export into a string.
func (e *Exporter) ExportString(g *rdfgraph.Graph, f format.Format) (string, error) {
	var buf bytes.Buffer
	if err := e.Export(&buf, g, f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Exporter) applyPrefixes(g *rdfgraph.Graph, set func(prefix, iri string)) {
	for p, ns := range g.NamespacePrefixes() {
		set(p, ns)
	}
	for p, ns := range e.prefixes {
		set(p, ns)
	}
}
