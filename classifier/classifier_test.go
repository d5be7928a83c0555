package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

func TestClassify(t *testing.T) {
	c := New(nil, nil)

	tests := []struct {
		name    string
		content string
		token   string
		want    Kind
	}{
		{
			name:    "owl class declaration",
			content: `<http://example.org/x> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .`,
			token:   ".nt",
			want:    Schema,
		},
		{
			name:    "plain application type",
			content: `<http://example.org/x> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .`,
			token:   ".nt",
			want:    InstanceData,
		},
		{
			name:    "https scheme variant",
			content: `<http://example.org/p> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://www.w3.org/1999/02/22-rdf-syntax-ns#Property> .`,
			token:   ".nt",
			want:    Schema,
		},
		{
			name: "turtle rdfs class",
			content: `@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
<http://example.org/Animal> a rdfs:Class .`,
			token: ".ttl",
			want:  Schema,
		},
		{
			name:    "owl property upper-case token",
			content: `<http://example.org/age> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Property> .`,
			token:   ".NT",
			want:    Schema,
		},
		{
			name:    "owl object property only",
			content: `<http://example.org/knows> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#ObjectProperty> .`,
			token:   ".nt",
			want:    InstanceData,
		},
		{
			name:    "https owl datatype property only",
			content: `<http://example.org/age> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://www.w3.org/2002/07/owl#DatatypeProperty> .`,
			token:   ".nt",
			want:    InstanceData,
		},
		{
			// The test looks at objects only: any predicate pointing at a
			// vocabulary term makes the document a schema.
			name:    "vocabulary term as object of any predicate",
			content: `<http://example.org/x> <http://example.org/seeAlso> <http://www.w3.org/2002/07/owl#Class> .`,
			token:   ".nt",
			want:    Schema,
		},
		{
			name:    "empty document",
			content: ``,
			token:   ".nt",
			want:    InstanceData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), []byte(tt.content), tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := c.Classify(context.Background(), []byte(tt.content), tt.token)
			require.NoError(t, err)
			assert.Equal(t, got, again, "classification is idempotent")
		})
	}
}

// An individual typed with a vocabulary term is classified as a schema even
// though the document declares nothing else. The heuristic is syntactic.
func TestClassifyIndividualTypedAsClassIsSchema(t *testing.T) {
	content := `@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
ex:alice a ex:Person .
ex:bob a owl:Class .
`
	got, err := New(nil, nil).Classify(context.Background(), []byte(content), ".ttl")
	require.NoError(t, err)
	assert.Equal(t, Schema, got)
}

func TestClassifyErrors(t *testing.T) {
	c := New(nil, nil)

	_, err := c.Classify(context.Background(), []byte("x"), ".csv")
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)

	_, err = c.Classify(context.Background(), []byte("not turtle at all"), ".ttl")
	assert.ErrorIs(t, err, rdfgraph.ErrMalformedSyntax)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "schema", Schema.String())
	assert.Equal(t, "instance", InstanceData.String())

	text, err := Schema.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "schema", string(text))
}
