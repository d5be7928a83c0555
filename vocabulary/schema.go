package vocabulary

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// schemaTerms are the class and property terms of rdf, rdfs and owl checked
// by the classifier. Each is matched under both the http and https schemes.
// Property subtypes such as owl:ObjectProperty are not included.
var schemaTerms = []string{
	RDFClass,
	RDFSClass,
	OWLClass,
	RDFProperty,
	RDFSProperty,
	OWLProperty,
}

// SchemaTypes is the fixed set of twelve IRIs whose presence as the object of
// any statement marks a document as a schema.
var SchemaTypes = buildSchemaTypes()

func buildSchemaTypes() mapset.Set[string] {
	set := mapset.NewSet[string]()
	for _, term := range schemaTerms {
		for _, variant := range SchemeVariants(term) {
			set.Add(variant)
		}
	}
	return set
}

// SchemeVariants returns the http and https spellings of an IRI.
// IRIs with any other scheme are returned unchanged.
func SchemeVariants(iri string) []string {
	switch {
	case strings.HasPrefix(iri, "http://"):
		return []string{iri, "https://" + strings.TrimPrefix(iri, "http://")}
	case strings.HasPrefix(iri, "https://"):
		return []string{"http://" + strings.TrimPrefix(iri, "https://"), iri}
	default:
		return []string{iri}
	}
}
