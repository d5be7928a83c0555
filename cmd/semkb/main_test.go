package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semkb/config"
)

const schemaDoc = `@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

ex:Person a owl:Class .
ex:Company a owl:Class .
ex:worksFor a owl:ObjectProperty ;
    rdfs:domain ex:Person ;
    rdfs:range ex:Company .
`

const instanceDoc = `<http://example.org/alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Person> .
<http://example.org/alice> <http://www.w3.org/2000/01/rdf-schema#label> "Alice" .
<http://example.org/acme> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Company> .
`

const contradictionDoc = `@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
ex:bob a owl:Nothing .
`

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("schema.ttl", schemaDoc)
	write("people.nt", instanceDoc)
	write("bad.ttl", contradictionDoc)

	cfgPath := filepath.Join(dir, "semkb.yaml")
	cfg := config.DefaultConfig()
	cfg.Log.Level = "error"
	require.NoError(t, cfg.SaveToFile(cfgPath))
	return &fixture{dir: dir, config: cfgPath}
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func (f *fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := newFixture(t).run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "semkb version "+Version)
}

func TestFormats(t *testing.T) {
	out, _, err := newFixture(t).run(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "Turtle")
	assert.Contains(t, out, ".rdf .rdfs .owl")
	assert.Contains(t, out, "TriX")
}

func TestClassify(t *testing.T) {
	f := newFixture(t)

	out, _, err := f.run(t, "classify", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Equal(t, "schema\n", out)

	out, _, err = f.run(t, "classify", f.path("people.nt"))
	require.NoError(t, err)
	assert.Equal(t, "instance\n", out)

	out, _, err = f.run(t, "classify", filepath.Join(f.dir, "*.ttl"))
	require.NoError(t, err)
	assert.Contains(t, out, "schema\t"+f.path("schema.ttl"))
	assert.Contains(t, out, "instance\t"+f.path("bad.ttl"))
}

func TestClassifyUnsupportedFormat(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run(t, "classify", "--format", ".docx", f.path("schema.ttl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".docx")
}

func TestClassesAndProperties(t *testing.T) {
	f := newFixture(t)

	out, _, err := f.run(t, "classes", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/Company\nhttp://example.org/Person\n", out)

	out, _, err = f.run(t, "properties", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/worksFor\n", out)
}

func TestRangeAndDomains(t *testing.T) {
	f := newFixture(t)

	out, _, err := f.run(t, "range", "http://example.org/Company", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/worksFor\n", out)

	out, _, err = f.run(t, "domains", "http://example.org/Company", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/Person\n", out)

	out, _, err = f.run(t, "range", "http://example.org/Person", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRelations(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "relations", f.path("schema.ttl"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"PROPERTY", "DOMAIN", "RANGE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"http://example.org/worksFor", "http://example.org/Person", "http://example.org/Company"}, strings.Fields(lines[1]))
}

func TestInstancesAccumulateAcrossSources(t *testing.T) {
	f := newFixture(t)

	out, _, err := f.run(t, "instances", f.path("schema.ttl"), f.path("people.nt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "http://example.org/Company\n  http://example.org/acme\t\nhttp://example.org/Person\n  http://example.org/alice\tAlice\n"), out)
	assert.Contains(t, out, "http://www.w3.org/2002/07/owl#Class\n")
	assert.Contains(t, out, "  http://example.org/Person\t\n")
	assert.Contains(t, out, "http://www.w3.org/2002/07/owl#ObjectProperty\n  http://example.org/worksFor\t\n")

	out, _, err = f.run(t, "instances", "--class", "http://example.org/Person", f.path("schema.ttl"), f.path("people.nt"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/alice\tAlice\n", out)
}

func TestPrefixes(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "prefixes", f.path("schema.ttl"))
	require.NoError(t, err)
	assert.Contains(t, out, "ex: http://example.org/\n")
	assert.Contains(t, out, "owl: http://www.w3.org/2002/07/owl#\n")
}

func TestLoadReportsEachSource(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "load", f.path("schema.ttl"), f.path("bad.ttl"), f.path("people.nt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "accepted  "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "rejected  "), lines[1])
	assert.Contains(t, lines[1], "nothing-member")
	assert.True(t, strings.HasPrefix(lines[2], "accepted  "), lines[2])
	assert.Equal(t, "knowledge base: 8 triples, depth 2", lines[3])
}

func TestLoadMergeStrategy(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "--strategy", "merge", "load", f.path("schema.ttl"), f.path("people.nt"))
	require.NoError(t, err)
	assert.Contains(t, out, "knowledge base: 8 triples, depth 1")
}

func TestLoadFailuresAreCounted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.path("broken.ttl"), []byte("ex:a ex:b"), 0644))

	out, _, err := f.run(t, "load", f.path("schema.ttl"), f.path("broken.ttl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 sources failed")
	assert.Contains(t, out, "error     "+f.path("broken.ttl"))
}

func TestLoadNeo4jRequiresURI(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run(t, "load", "--neo4j", f.path("schema.ttl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neo4j.uri")
}

func TestExport(t *testing.T) {
	f := newFixture(t)

	out, _, err := f.run(t, "export", "--to", ".nt", f.path("schema.ttl"), f.path("people.nt"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 8)

	target := f.path("out.ttl")
	_, _, err = f.run(t, "export", "--profile", "schema", "--output", target, f.path("schema.ttl"), f.path("people.nt"))
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ex:worksFor a owl:ObjectProperty")
	assert.NotContains(t, string(data), "alice")
}

func TestExportRejectsUnknownProfile(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run(t, "export", "--profile", "bfo", f.path("schema.ttl"))
	require.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run(t, "--log-level", "chatty", "classes", f.path("schema.ttl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}
