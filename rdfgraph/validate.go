package rdfgraph

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/c360studio/semkb/vocabulary"
)

// Issue is one contradiction found by Validate.
type Issue struct {
	Rule    string `json:"rule"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// String renders the issue for humans.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Rule, i.Message, i.Subject)
}

// ValidityReport is the verdict of the consistency validator.
type ValidityReport struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Validation rule names.
const (
	RuleLiteralType        = "literal-type"
	RuleNothingMember      = "nothing-member"
	RuleDisjointMember     = "disjoint-member"
	RuleSameAndDifferent   = "same-and-different"
	RuleObjectPropLiteral  = "object-property-literal"
	RuleDataPropResource   = "datatype-property-resource"
	RuleFunctionalMultiple = "functional-multiple-values"
)

type rule struct {
	name  string
	check func(g *Graph) []Issue
}

var rules = []rule{
	{RuleLiteralType, checkLiteralType},
	{RuleNothingMember, checkNothing},
	{RuleDisjointMember, checkDisjoint},
	{RuleSameAndDifferent, checkSameDifferent},
	{RuleObjectPropLiteral, checkObjectProperties},
	{RuleDataPropResource, checkDatatypeProperties},
	{RuleFunctionalMultiple, checkFunctional},
}

// Validate checks the union for contradictions under RDFS/OWL vocabulary
// semantics without inference. An error is returned only when no verdict
// could be reached; it wraps ErrValidationInconclusive.
func (g *Graph) Validate(ctx context.Context) (ValidityReport, error) {
	report := ValidityReport{Valid: true}
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return ValidityReport{}, fmt.Errorf("%w: %s: %v", ErrValidationInconclusive, r.name, err)
		}
		report.Issues = append(report.Issues, r.check(g)...)
	}
	report.Valid = len(report.Issues) == 0
	return report, nil
}

func issue(name string, subject Term, format string, args ...any) Issue {
	return Issue{Rule: name, Subject: subject.String(), Message: fmt.Sprintf(format, args...)}
}

func checkLiteralType(g *Graph) []Issue {
	var out []Issue
	g.each(nil, &rdfType, nil, func(t Triple) bool {
		if t.O.IsLiteral() {
			out = append(out, issue(RuleLiteralType, t.S, "typed with literal %s", t.O))
		}
		return true
	})
	return out
}

func checkNothing(g *Graph) []Issue {
	var out []Issue
	nothing := NewIRI(vocabulary.OWLNothing)
	g.each(nil, &rdfType, &nothing, func(t Triple) bool {
		out = append(out, issue(RuleNothingMember, t.S, "member of owl:Nothing"))
		return true
	})
	return out
}

func checkDisjoint(g *Graph) []Issue {
	var out []Issue
	disjoint := NewIRI(vocabulary.OWLDisjointWith)
	g.each(nil, &disjoint, nil, func(t Triple) bool {
		if t.S == t.O {
			return true
		}
		members := mapset.NewThreadUnsafeSet[Term]()
		for _, tr := range g.Find(nil, &rdfType, &t.S) {
			members.Add(tr.S)
		}
		for _, tr := range g.Find(nil, &rdfType, &t.O) {
			if members.Contains(tr.S) {
				out = append(out, issue(RuleDisjointMember, tr.S, "member of disjoint classes %s and %s", t.S, t.O))
			}
		}
		return true
	})
	return out
}

func checkSameDifferent(g *Graph) []Issue {
	var out []Issue
	same := NewIRI(vocabulary.OWLSameAs)
	different := NewIRI(vocabulary.OWLDifferentFrom)
	g.each(nil, &same, nil, func(t Triple) bool {
		if g.Contains(NewTriple(t.S, different, t.O)) || g.Contains(NewTriple(t.O, different, t.S)) {
			out = append(out, issue(RuleSameAndDifferent, t.S, "both sameAs and differentFrom %s", t.O))
		}
		return true
	})
	return out
}

// propertiesOfType returns the properties typed with the given class IRI.
func (g *Graph) propertiesOfType(iri string) []Term {
	return g.Individuals(iri)
}

func checkObjectProperties(g *Graph) []Issue {
	var out []Issue
	for _, p := range g.propertiesOfType(vocabulary.OWLObjectProperty) {
		p := p
		g.each(nil, &p, nil, func(t Triple) bool {
			if t.O.IsLiteral() {
				out = append(out, issue(RuleObjectPropLiteral, t.S, "object property %s has literal value %s", p, t.O))
			}
			return true
		})
	}
	return out
}

func checkDatatypeProperties(g *Graph) []Issue {
	var out []Issue
	for _, p := range g.propertiesOfType(vocabulary.OWLDatatypeProperty) {
		p := p
		g.each(nil, &p, nil, func(t Triple) bool {
			if !t.O.IsLiteral() {
				out = append(out, issue(RuleDataPropResource, t.S, "datatype property %s has resource value %s", p, t.O))
			}
			return true
		})
	}
	return out
}

func checkFunctional(g *Graph) []Issue {
	var out []Issue
	for _, p := range g.propertiesOfType(vocabulary.OWLFunctionalProperty) {
		p := p
		first := make(map[Term]Term)
		reported := make(map[Term]struct{})
		g.each(nil, &p, nil, func(t Triple) bool {
			if !t.O.IsLiteral() {
				return true
			}
			prev, ok := first[t.S]
			if !ok {
				first[t.S] = t.O
				return true
			}
			if sameValue(prev, t.O) {
				return true
			}
			if _, done := reported[t.S]; !done {
				reported[t.S] = struct{}{}
				out = append(out, issue(RuleFunctionalMultiple, t.S, "functional property %s has values %s and %s", p, prev, t.O))
			}
			return true
		})
	}
	return out
}
