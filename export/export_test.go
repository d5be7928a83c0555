package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semkb/codec"
	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

const ex = "http://example.org/"

const sampleTurtle = `
@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

ex:Person a owl:Class ;
    rdfs:label "Person"@en .
ex:age a owl:DatatypeProperty ;
    rdfs:domain ex:Person ;
    rdfs:range xsd:integer .
ex:alice a ex:Person ;
    rdfs:label "Alice" ;
    ex:age "42"^^xsd:integer ;
    ex:note "line one\nline \"two\"" .
`

func parse(t *testing.T, content []byte, f format.Format) *rdfgraph.Graph {
	t.Helper()
	g, err := codec.NewEngine(nil, nil).Parse(context.Background(), content, f)
	require.NoError(t, err)
	return g
}

func sample(t *testing.T) *rdfgraph.Graph {
	return parse(t, []byte(sampleTurtle), format.Turtle)
}

func assertSameStatements(t *testing.T, want, got *rdfgraph.Graph) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	for _, tr := range want.Triples() {
		if tr.S.IsBlank() || tr.O.IsBlank() {
			continue
		}
		assert.True(t, got.Contains(tr), "missing %s", tr)
	}
}

func TestExportRoundTrip(t *testing.T) {
	g := sample(t)
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewExporter(ProfileFull).Export(&buf, g, f))
			pf := f
			if f == format.NQuads {
				pf = format.NTriples
			}
			assertSameStatements(t, g, parse(t, buf.Bytes(), pf))
		})
	}
}

func TestExportTurtleShape(t *testing.T) {
	out, err := NewExporter(ProfileFull).ExportString(sample(t), format.Turtle)
	require.NoError(t, err)

	assert.Contains(t, out, "@prefix ex: <http://example.org/> .\n")
	assert.Contains(t, out, "@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n")
	assert.Contains(t, out, "\nex:Person a owl:Class ;\n    rdfs:label \"Person\"@en .\n")
	assert.Contains(t, out, `ex:age "42"^^xsd:integer`)
	assert.Contains(t, out, `"line one\nline \"two\""`)
	assert.Equal(t, 1, strings.Count(out, "\nex:alice "), "one block per subject")
}

func TestTurtleWriterObjectLists(t *testing.T) {
	s := rdfgraph.NewIRI(ex + "a")
	p := rdfgraph.NewIRI(ex + "p")
	triples := []rdfgraph.Triple{
		rdfgraph.NewTriple(s, p, rdfgraph.NewIRI(ex+"b")),
		rdfgraph.NewTriple(s, p, rdfgraph.NewIRI(ex+"c")),
		rdfgraph.NewTriple(s, rdfgraph.NewIRI(ex+"q"), rdfgraph.NewIRI("urn:x:1")),
		rdfgraph.NewTriple(rdfgraph.NewBlank("n0"), p, rdfgraph.NewIRI(ex+"has/slash")),
	}

	w := NewTurtleWriter()
	w.SetPrefix("ex", ex)
	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, triples))

	out := buf.String()
	assert.Contains(t, out, "\nex:a ex:p ex:b , ex:c ;\n    ex:q <urn:x:1> .\n")
	assert.Contains(t, out, "\n_:n0 ex:p <http://example.org/has/slash> .\n")
}

func TestExportNTriples(t *testing.T) {
	g := sample(t)
	out, err := NewExporter(ProfileFull).ExportString(g, format.NTriples)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, g.Len())
	assert.Contains(t, out, `<http://example.org/alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .`)
}

func TestExportJSONLDUsesPrefixes(t *testing.T) {
	out, err := NewExporter(ProfileFull).ExportString(sample(t), format.JSONLD)
	require.NoError(t, err)
	assert.Contains(t, out, `"@context"`)
	assert.Contains(t, out, `"ex:alice"`)
}

func TestExportUnsupported(t *testing.T) {
	_, err := NewExporter(ProfileFull).ExportString(sample(t), format.TriX)
	assert.ErrorIs(t, err, ErrUnsupportedExport)
}

func TestExportExtraPrefix(t *testing.T) {
	e := NewExporter(ProfileFull)
	e.SetPrefix("people", ex+"people/")

	b := rdfgraph.NewBuilder()
	_, err := b.AddTriple(rdfgraph.NewIRI(ex+"people/bob"), rdfgraph.NewIRI(vocabulary.RDFType), rdfgraph.NewIRI(ex+"Person"))
	require.NoError(t, err)

	out, err := e.ExportString(b.Build(), format.Turtle)
	require.NoError(t, err)
	assert.Contains(t, out, "people:bob a <http://example.org/Person> .")
}

func TestSelectProfiles(t *testing.T) {
	g := sample(t)
	alice := rdfgraph.NewIRI(ex + "alice")
	person := rdfgraph.NewIRI(ex + "Person")

	assert.Same(t, g, Select(g, ProfileFull))

	schema := Select(g, ProfileSchema)
	assert.Equal(t, 5, schema.Len())
	assert.Empty(t, schema.Find(&alice, nil, nil))
	assert.NotEmpty(t, schema.Find(&person, nil, nil))
	assert.Equal(t, ex, schema.NamespacePrefixes()["ex"])

	inst := Select(g, ProfileInstances)
	assert.Equal(t, 4, inst.Len())
	assert.Empty(t, inst.Find(&person, nil, nil))
	assert.Equal(t, g.Len(), schema.Len()+inst.Len())
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileFull, p)

	p, err = ParseProfile("schema")
	require.NoError(t, err)
	assert.Equal(t, ProfileSchema, p)

	_, err = ParseProfile("cco")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instances")

	assert.Equal(t, ProfileFull, GetProfileConfig("nope").Name)
}

func TestProject(t *testing.T) {
	g := sample(t)
	statements := Project(g)

	var cyphers []string
	for _, st := range statements {
		cyphers = append(cyphers, st.Cypher)
	}
	require.Equal(t, []string{cypherClass, cypherProperty, cypherDomain, cypherRange, cypherInstance}, cyphers)

	assert.Equal(t, ex+"Person", statements[0].Params["iri"])
	assert.Equal(t, "Person", statements[0].Params["label"])
	assert.Equal(t, g.ID(), statements[0].Params["graph"])
	assert.Equal(t, ex+"Person", statements[2].Params["domain"])
	assert.Equal(t, vocabulary.XSDInteger, statements[3].Params["range"])
	assert.Equal(t, ex+"alice", statements[4].Params["iri"])
	assert.Equal(t, "Alice", statements[4].Params["label"])
	assert.Equal(t, ex+"Person", statements[4].Params["class"])
}

func TestProjectEmptyGraph(t *testing.T) {
	assert.Empty(t, Project(rdfgraph.New()))
}
