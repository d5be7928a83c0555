package codec

import (
	"bytes"
	"fmt"

	"github.com/piprate/json-gold/ld"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// jsonldDecoder expands JSON-LD to an RDF dataset and flattens its graphs.
type jsonldDecoder struct {
	proc *ld.JsonLdProcessor
	opts *ld.JsonLdOptions
}

// NewJSONLDDecoder returns the JSON-LD decoder. Remote contexts are fetched
// with json-gold's default document loader.
func NewJSONLDDecoder() Decoder {
	return &jsonldDecoder{
		proc: ld.NewJsonLdProcessor(),
		opts: ld.NewJsonLdOptions(""),
	}
}

func (d *jsonldDecoder) Format() format.Format { return format.JSONLD }

func (d *jsonldDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	doc, err := ld.DocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("read json-ld document: %w", err)
	}

	out, err := d.proc.ToRDF(doc, d.opts)
	if err != nil {
		return fmt.Errorf("convert json-ld to rdf: %w", err)
	}
	dataset, ok := out.(*ld.RDFDataset)
	if !ok {
		return fmt.Errorf("unexpected json-ld result %T", out)
	}

	for p, ns := range jsonldPrefixes(content) {
		b.SetPrefix(p, ns)
	}

	// Default graph first, then named graphs.
	if quads, ok := dataset.Graphs["@default"]; ok {
		if err := addLDQuads(b, quads); err != nil {
			return err
		}
	}
	for name, quads := range dataset.Graphs {
		if name == "@default" {
			continue
		}
		if err := addLDQuads(b, quads); err != nil {
			return err
		}
	}
	return nil
}

func addLDQuads(b *rdfgraph.Builder, quads []*ld.Quad) error {
	for _, q := range quads {
		s, err := fromLD(q.Subject)
		if err != nil {
			return err
		}
		p, err := fromLD(q.Predicate)
		if err != nil {
			return err
		}
		o, err := fromLD(q.Object)
		if err != nil {
			return err
		}
		if _, err := b.AddTriple(s, p, o); err != nil {
			return err
		}
	}
	return nil
}

func fromLD(n ld.Node) (rdfgraph.Term, error) {
	switch v := n.(type) {
	case *ld.IRI:
		return rdfgraph.NewIRI(v.Value), nil
	case *ld.BlankNode:
		return rdfgraph.NewBlank(v.Attribute), nil
	case *ld.Literal:
		if v.Language != "" {
			return rdfgraph.NewLangLiteral(v.Value, v.Language), nil
		}
		return rdfgraph.NewTypedLiteral(v.Value, v.Datatype), nil
	default:
		return rdfgraph.Term{}, fmt.Errorf("unsupported json-ld node %T", n)
	}
}
