package rdfgraph

import mapset "github.com/deckarep/golang-set/v2"

// Pattern constrains statement positions to sets of acceptable terms. A nil
// set leaves the position unconstrained.
type Pattern struct {
	Subject   mapset.Set[Term]
	Predicate mapset.Set[Term]
	Object    mapset.Set[Term]
}

// ObjectIn returns a pattern matching any statement whose object is one of
// the given IRIs.
func ObjectIn(iris mapset.Set[string]) Pattern {
	objs := mapset.NewThreadUnsafeSet[Term]()
	iris.Each(func(iri string) bool {
		objs.Add(NewIRI(iri))
		return false
	})
	return Pattern{Object: objs}
}

func (p Pattern) matches(t Triple) bool {
	if p.Subject != nil && !p.Subject.Contains(t.S) {
		return false
	}
	if p.Predicate != nil && !p.Predicate.Contains(t.P) {
		return false
	}
	if p.Object != nil && !p.Object.Contains(t.O) {
		return false
	}
	return true
}

// Ask reports whether at least one statement of the union matches p.
func (g *Graph) Ask(p Pattern) bool {
	// Drive the search from the most selective constrained position.
	var driver mapset.Set[Term]
	var pos int
	for i, set := range []mapset.Set[Term]{p.Subject, p.Predicate, p.Object} {
		if set != nil && (driver == nil || set.Cardinality() < driver.Cardinality()) {
			driver = set
			pos = i
		}
	}

	found := false
	visit := func(t Triple) bool {
		if p.matches(t) {
			found = true
			return false
		}
		return true
	}

	if driver == nil {
		g.each(nil, nil, nil, visit)
		return found
	}

	for _, term := range driver.ToSlice() {
		term := term
		switch pos {
		case 0:
			g.each(&term, nil, nil, visit)
		case 1:
			g.each(nil, &term, nil, visit)
		default:
			g.each(nil, nil, &term, visit)
		}
		if found {
			return true
		}
	}
	return false
}
