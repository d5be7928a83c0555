package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/knakk/rdf"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// tripleDecoder drives a knakk/rdf triple decoder.
type tripleDecoder struct {
	f      format.Format
	syntax rdf.Format
	// prefixes extracts namespace declarations the parser does not expose.
	prefixes func([]byte) map[string]string
}

// NewTurtleDecoder returns the Turtle decoder.
func NewTurtleDecoder() Decoder {
	return &tripleDecoder{f: format.Turtle, syntax: rdf.Turtle, prefixes: turtlePrefixes}
}

// NewNTriplesDecoder returns the N-Triples decoder.
func NewNTriplesDecoder() Decoder {
	return &tripleDecoder{f: format.NTriples, syntax: rdf.NTriples}
}

// NewRDFXMLDecoder returns the RDF/XML decoder.
func NewRDFXMLDecoder() Decoder {
	return &tripleDecoder{f: format.RDFXML, syntax: rdf.RDFXML, prefixes: xmlPrefixes}
}

func (d *tripleDecoder) Format() format.Format { return d.f }

func (d *tripleDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	if d.prefixes != nil {
		for p, ns := range d.prefixes(content) {
			b.SetPrefix(p, ns)
		}
	}
	return decodeTriples(content, d.syntax, b)
}

func decodeTriples(content []byte, syntax rdf.Format, b *rdfgraph.Builder) error {
	dec := rdf.NewTripleDecoder(bytes.NewReader(content), syntax)
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := addKnakk(b, tr.Subj, tr.Pred, tr.Obj); err != nil {
			return err
		}
	}
}

// nquadsDecoder reads N-Quads, dropping the graph label.
type nquadsDecoder struct{}

// NewNQuadsDecoder returns the N-Quads decoder.
func NewNQuadsDecoder() Decoder {
	return nquadsDecoder{}
}

func (nquadsDecoder) Format() format.Format { return format.NQuads }

func (nquadsDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	dec := rdf.NewQuadDecoder(bytes.NewReader(content), rdf.NQuads)
	for {
		q, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := addKnakk(b, q.Subj, q.Pred, q.Obj); err != nil {
			return err
		}
	}
}

func addKnakk(b *rdfgraph.Builder, s, p, o rdf.Term) error {
	st, err := fromKnakk(s)
	if err != nil {
		return err
	}
	pt, err := fromKnakk(p)
	if err != nil {
		return err
	}
	ot, err := fromKnakk(o)
	if err != nil {
		return err
	}
	_, err = b.AddTriple(st, pt, ot)
	return err
}

func fromKnakk(t rdf.Term) (rdfgraph.Term, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return rdfgraph.NewIRI(v.String()), nil
	case rdf.Blank:
		return rdfgraph.NewBlank(v.String()), nil
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return rdfgraph.NewLangLiteral(v.String(), lang), nil
		}
		return rdfgraph.NewTypedLiteral(v.String(), v.DataType.String()), nil
	default:
		return rdfgraph.Term{}, fmt.Errorf("unsupported term %T", t)
	}
}
