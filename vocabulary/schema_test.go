package vocabulary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaTypes(t *testing.T) {
	assert.Equal(t, 12, SchemaTypes.Cardinality())

	for _, iri := range []string{
		"http://www.w3.org/2002/07/owl#Class",
		"https://www.w3.org/2002/07/owl#Class",
		"http://www.w3.org/2000/01/rdf-schema#Class",
		"https://www.w3.org/1999/02/22-rdf-syntax-ns#Property",
		"https://www.w3.org/2002/07/owl#Property",
	} {
		assert.True(t, SchemaTypes.Contains(iri), iri)
	}

	assert.False(t, SchemaTypes.Contains(RDFType))
	assert.False(t, SchemaTypes.Contains(OWLObjectProperty))
	assert.False(t, SchemaTypes.Contains("https://www.w3.org/2002/07/owl#DatatypeProperty"))
	assert.False(t, SchemaTypes.Contains("http://example.org/Person"))
}

func TestSchemeVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"http://x.org/a", []string{"http://x.org/a", "https://x.org/a"}},
		{"https://x.org/a", []string{"http://x.org/a", "https://x.org/a"}},
		{"urn:x:a", []string{"urn:x:a"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SchemeVariants(tt.in))
		})
	}
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, IsBuiltin(OWLClass))
	assert.True(t, IsBuiltin(RDFSClass))
	assert.True(t, IsBuiltin(RDFProperty))
	assert.False(t, IsBuiltin(XSDInteger))
	assert.False(t, IsBuiltin("http://example.org/Person"))
}
