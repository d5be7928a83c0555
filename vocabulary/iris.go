package vocabulary

import "strings"

// Namespace IRIs for the standard vocabularies.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
)

// RDF terms.
const (
	RDFType       = RDFNamespace + "type"
	RDFProperty   = RDFNamespace + "Property"
	RDFClass      = RDFNamespace + "Class"
	RDFLangString = RDFNamespace + "langString"
)

// RDFS terms.
const (
	RDFSClass      = RDFSNamespace + "Class"
	RDFSProperty   = RDFSNamespace + "Property"
	RDFSLabel      = RDFSNamespace + "label"
	RDFSComment    = RDFSNamespace + "comment"
	RDFSDomain     = RDFSNamespace + "domain"
	RDFSRange      = RDFSNamespace + "range"
	RDFSSubClassOf = RDFSNamespace + "subClassOf"
	RDFSLiteral    = RDFSNamespace + "Literal"
)

// OWL terms.
const (
	OWLClass                     = OWLNamespace + "Class"
	OWLProperty                  = OWLNamespace + "Property"
	OWLRestriction               = OWLNamespace + "Restriction"
	OWLThing                     = OWLNamespace + "Thing"
	OWLNothing                   = OWLNamespace + "Nothing"
	OWLObjectProperty            = OWLNamespace + "ObjectProperty"
	OWLDatatypeProperty          = OWLNamespace + "DatatypeProperty"
	OWLAnnotationProperty        = OWLNamespace + "AnnotationProperty"
	OWLFunctionalProperty        = OWLNamespace + "FunctionalProperty"
	OWLInverseFunctionalProperty = OWLNamespace + "InverseFunctionalProperty"
	OWLTransitiveProperty        = OWLNamespace + "TransitiveProperty"
	OWLSymmetricProperty         = OWLNamespace + "SymmetricProperty"
	OWLDisjointWith              = OWLNamespace + "disjointWith"
	OWLSameAs                    = OWLNamespace + "sameAs"
	OWLDifferentFrom             = OWLNamespace + "differentFrom"
)

// XSD datatypes written by the codecs for native literal values.
const (
	XSDString  = XSDNamespace + "string"
	XSDInteger = XSDNamespace + "integer"
	XSDDecimal = XSDNamespace + "decimal"
	XSDDouble  = XSDNamespace + "double"
	XSDBoolean = XSDNamespace + "boolean"
	XSDDate    = XSDNamespace + "dateTime"
)

// ClassTypes are the rdf:type objects that put a resource in the class index.
var ClassTypes = []string{
	OWLClass,
	RDFSClass,
	OWLRestriction,
}

// PropertyTypes are the rdf:type objects that put a resource in the property index.
var PropertyTypes = []string{
	RDFProperty,
	OWLObjectProperty,
	OWLDatatypeProperty,
	OWLAnnotationProperty,
	OWLFunctionalProperty,
	OWLInverseFunctionalProperty,
	OWLTransitiveProperty,
	OWLSymmetricProperty,
}

// IsBuiltin reports whether iri belongs to the rdf, rdfs or owl namespace.
func IsBuiltin(iri string) bool {
	return strings.HasPrefix(iri, RDFNamespace) ||
		strings.HasPrefix(iri, RDFSNamespace) ||
		strings.HasPrefix(iri, OWLNamespace)
}

// DefaultPrefixes returns the well-known prefix bindings used when writing graphs.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":  RDFNamespace,
		"rdfs": RDFSNamespace,
		"owl":  OWLNamespace,
		"xsd":  XSDNamespace,
	}
}
