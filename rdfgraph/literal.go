package rdfgraph

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/c360studio/semkb/vocabulary"
)

// exactNumeric are the XSD datatypes whose values compare as exact rationals.
var exactNumeric = map[string]bool{
	vocabulary.XSDDecimal:                          true,
	vocabulary.XSDInteger:                          true,
	vocabulary.XSDNamespace + "long":               true,
	vocabulary.XSDNamespace + "int":                true,
	vocabulary.XSDNamespace + "short":              true,
	vocabulary.XSDNamespace + "byte":               true,
	vocabulary.XSDNamespace + "nonNegativeInteger": true,
	vocabulary.XSDNamespace + "nonPositiveInteger": true,
	vocabulary.XSDNamespace + "positiveInteger":    true,
	vocabulary.XSDNamespace + "negativeInteger":    true,
	vocabulary.XSDNamespace + "unsignedLong":       true,
	vocabulary.XSDNamespace + "unsignedInt":        true,
	vocabulary.XSDNamespace + "unsignedShort":      true,
	vocabulary.XSDNamespace + "unsignedByte":       true,
}

var floating = map[string]bool{
	vocabulary.XSDDouble:              true,
	vocabulary.XSDNamespace + "float": true,
}

// literalValue is the comparison key of a literal. Numeric and boolean
// literals map onto their value space so that "01"^^xsd:integer and
// "1"^^xsd:integer are equal. Other literals, and lexical forms that do not
// parse, compare as terms.
type literalValue struct {
	space string
	value string
	term  Term
}

func valueOf(t Term) literalValue {
	lex := strings.TrimSpace(t.Value)
	switch {
	case exactNumeric[t.Datatype]:
		if r, ok := new(big.Rat).SetString(lex); ok {
			return literalValue{space: "exact", value: r.RatString()}
		}
	case floating[t.Datatype]:
		if f, err := strconv.ParseFloat(lex, 64); err == nil {
			return literalValue{space: "float", value: strconv.FormatFloat(f, 'g', -1, 64)}
		}
	case t.Datatype == vocabulary.XSDBoolean:
		switch lex {
		case "true", "1":
			return literalValue{space: "boolean", value: "true"}
		case "false", "0":
			return literalValue{space: "boolean", value: "false"}
		}
	}
	return literalValue{term: t}
}

// sameValue reports whether two literals denote the same value.
func sameValue(a, b Term) bool {
	return a == b || valueOf(a) == valueOf(b)
}
