package codec

import (
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semkb/rdfgraph"
)

func TestFlattenTriG(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name:  "default graph block",
			input: "{ <http://e/a> <http://e/p> <http://e/b> . }",
			want:  1,
		},
		{
			name:  "labelled block without final dot",
			input: "<http://e/g> { <http://e/a> <http://e/p> <http://e/b> }",
			want:  1,
		},
		{
			name: "sparql style prefix before default block",
			input: `PREFIX e: <http://e/>
{ e:a e:p e:b }`,
			want: 1,
		},
		{
			name: "GRAPH keyword and prefixed label",
			input: `@prefix e: <http://e/> .
GRAPH e:g1 { e:a e:p e:b . e:a e:p e:c }
e:g2 { e:a e:q "}{" }`,
			want: 3,
		},
		{
			name: "blank graph label and comments",
			input: `@prefix e: <http://e/> .
# a { comment }
[] { e:a e:p """long
}string""" }
_:g { e:x e:p e:y }`,
			want: 2,
		},
		{
			name:  "plain triples outside blocks",
			input: "<http://e/a> <http://e/p> <http://e/b> .\n<http://e/g> { <http://e/c> <http://e/p> <http://e/d> }",
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := rdfgraph.NewBuilder()
			flat := flattenTriG([]byte(tt.input))
			require.NoError(t, decodeTriples(flat, rdf.Turtle, b), string(flat))
			assert.Equal(t, tt.want, b.Len(), string(flat))
		})
	}
}

func TestStringLen(t *testing.T) {
	assert.Equal(t, 4, stringLen([]byte(`"ab" rest`)))
	assert.Equal(t, 6, stringLen([]byte(`"a\"b" x`)))
	assert.Equal(t, 9, stringLen([]byte(`'''a'b''' x`)))
	assert.Equal(t, 3, stringLen([]byte(`"ab`)), "unterminated runs to the end")
}
