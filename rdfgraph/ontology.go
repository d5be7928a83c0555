package rdfgraph

import "github.com/c360studio/semkb/vocabulary"

var (
	rdfType    = NewIRI(vocabulary.RDFType)
	rdfsLabel  = NewIRI(vocabulary.RDFSLabel)
	rdfsRange  = NewIRI(vocabulary.RDFSRange)
	rdfsDomain = NewIRI(vocabulary.RDFSDomain)
)

// Classes returns the URIs of every named resource typed as a class, in
// enumeration order without duplicates. Anonymous class expressions are not
// listed.
func (g *Graph) Classes() []string {
	return g.namedSubjectsOfTypes(vocabulary.ClassTypes)
}

// Properties returns the URIs of every named resource typed as a property.
func (g *Graph) Properties() []string {
	return g.namedSubjectsOfTypes(vocabulary.PropertyTypes)
}

func (g *Graph) namedSubjectsOfTypes(types []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, typ := range types {
		obj := NewIRI(typ)
		g.each(nil, &rdfType, &obj, func(t Triple) bool {
			uri, ok := t.S.URI()
			if !ok {
				return true
			}
			if _, dup := seen[uri]; !dup {
				seen[uri] = struct{}{}
				out = append(out, uri)
			}
			return true
		})
	}
	return out
}

// Range returns the first declared rdfs:range of a property. The boolean is
// false when the property declares none.
func (g *Graph) Range(property string) (Term, bool) {
	subj := NewIRI(property)
	var rng Term
	found := false
	g.each(&subj, &rdfsRange, nil, func(t Triple) bool {
		rng = t.O
		found = true
		return false
	})
	return rng, found
}

// Domains returns every declared rdfs:domain of a property.
func (g *Graph) Domains(property string) []Term {
	subj := NewIRI(property)
	var out []Term
	g.each(&subj, &rdfsDomain, nil, func(t Triple) bool {
		out = append(out, t.O)
		return true
	})
	return out
}

// Individuals returns the resources asserted to have rdf:type class, in
// enumeration order.
func (g *Graph) Individuals(class string) []Term {
	obj := NewIRI(class)
	var out []Term
	g.each(nil, &rdfType, &obj, func(t Triple) bool {
		out = append(out, t.S)
		return true
	})
	return out
}

// Label returns the lexical value of the first literal rdfs:label of subject.
// The boolean is false when there is no literal label.
func (g *Graph) Label(subject Term) (string, bool) {
	var label string
	found := false
	g.each(&subject, &rdfsLabel, nil, func(t Triple) bool {
		if !t.O.IsLiteral() {
			return true
		}
		label = t.O.Value
		found = true
		return false
	})
	return label, found
}

// TypeObjects returns every distinct object of an rdf:type statement.
func (g *Graph) TypeObjects() []Term {
	var out []Term
	seen := make(map[Term]struct{})
	g.each(nil, &rdfType, nil, func(t Triple) bool {
		if _, dup := seen[t.O]; !dup {
			seen[t.O] = struct{}{}
			out = append(out, t.O)
		}
		return true
	})
	return out
}

// Types returns the rdf:type objects asserted for subject.
func (g *Graph) Types(subject Term) []Term {
	var out []Term
	g.each(&subject, &rdfType, nil, func(t Triple) bool {
		out = append(out, t.O)
		return true
	})
	return out
}
