// Package rdfgraph implements the in-memory graph model consumed by the
// knowledge-base packages.
//
// A Graph is built once through a Builder and is read-only afterwards, apart from
// the registration of constituent sub-graphs. Every query on a graph sees the
// union of its own statements and those of all reachable sub-graphs.
//
// The ontology views (classes, properties, individuals, range and domain) follow
// the asserted statements only; no inference is performed.
package rdfgraph

import (
	"strings"

	"github.com/c360studio/semkb/vocabulary"
)

// TermKind distinguishes the three RDF term types.
type TermKind uint8

// Term kinds.
const (
	KindIRI TermKind = iota + 1
	KindBlank
	KindLiteral
)

// String returns the kind name.
func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is an RDF term. Terms are comparable and usable as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlank returns a blank node term. A leading "_:" is dropped.
func NewBlank(id string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(id, "_:")}
}

// NewLiteral returns a plain string literal.
func NewLiteral(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// NewLangLiteral returns a language-tagged literal. Tags are case-insensitive
// and stored lower-cased.
func NewLangLiteral(value, lang string) Term {
	if lang == "" {
		return NewLiteral(value)
	}
	return Term{Kind: KindLiteral, Value: value, Lang: strings.ToLower(lang)}
}

// NewTypedLiteral returns a datatyped literal. xsd:string and rdf:langString
// collapse onto the plain literal form.
func NewTypedLiteral(value, datatype string) Term {
	if datatype == vocabulary.XSDString || datatype == vocabulary.RDFLangString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsZero reports whether the term is unset.
func (t Term) IsZero() bool { return t.Kind == 0 }

// URI returns the IRI of a named resource. Blank nodes and literals have none.
func (t Term) URI() (string, bool) {
	if t.Kind != KindIRI {
		return "", false
	}
	return t.Value, true
}

// String returns the N-Triples form of the term.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		s := `"` + EscapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			s += "@" + t.Lang
		case t.Datatype != "":
			s += "^^<" + t.Datatype + ">"
		}
		return s
	default:
		return ""
	}
}

// EscapeLiteral escapes special characters for N-Triples and Turtle output.
func EscapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

// Triple is a single subject-predicate-object statement.
type Triple struct {
	S Term
	P Term
	O Term
}

// NewTriple builds a triple.
func NewTriple(s, p, o Term) Triple {
	return Triple{S: s, P: p, O: o}
}

// String returns the N-Triples line for the statement without a trailing newline.
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Valid reports whether the statement has a legal shape: a named or blank
// subject, an IRI predicate and any object.
func (t Triple) Valid() bool {
	if t.S.Kind != KindIRI && t.S.Kind != KindBlank {
		return false
	}
	return t.P.Kind == KindIRI && !t.O.IsZero()
}
