package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semkb/kb"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

const ex = "http://example.org/"

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	messages [][]byte
	failAt   int
}

func (r *recordingPublisher) PublishToStream(_ context.Context, subject string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && len(r.messages)+1 == r.failAt {
		return errors.New("stream unavailable")
	}
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, data)
	return nil
}

func sampleGraph(t *testing.T) *rdfgraph.Graph {
	t.Helper()
	b := rdfgraph.NewBuilder()
	typ := rdfgraph.NewIRI(vocabulary.RDFType)
	add := func(s, p, o rdfgraph.Term) {
		_, err := b.AddTriple(s, p, o)
		require.NoError(t, err)
	}
	add(rdfgraph.NewIRI(ex+"Person"), typ, rdfgraph.NewIRI(vocabulary.OWLClass))
	add(rdfgraph.NewIRI(ex+"knows"), typ, rdfgraph.NewIRI(vocabulary.OWLObjectProperty))
	add(rdfgraph.NewIRI(ex+"alice"), typ, rdfgraph.NewIRI(ex+"Person"))
	add(rdfgraph.NewIRI(ex+"alice"), rdfgraph.NewIRI(vocabulary.RDFSLabel), rdfgraph.NewLiteral("Alice"))
	add(rdfgraph.NewBlank("n1"), rdfgraph.NewIRI(ex+"note"), rdfgraph.NewLiteral("x"))
	return b.Build()
}

func fixedPublisher(nc StreamPublisher) *Publisher {
	p := NewPublisher(nc, nil)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestEntitiesGroupBySubject(t *testing.T) {
	g := sampleGraph(t)
	entities := fixedPublisher(nil).Entities(g)
	require.Len(t, entities, 4)

	kinds := []string{KindClass, KindProperty, KindIndividual, KindResource}
	for i, e := range entities {
		assert.True(t, strings.HasPrefix(e.EntityID(), "semkb.local.kb.rdf."+kinds[i]+"."), e.EntityID())
		require.NoError(t, e.Validate())
		assert.Equal(t, PredicateIRI, e.Triples()[0].Predicate)
		assert.Equal(t, g.ID(), e.Triples()[1].Object)
		assert.Equal(t, kinds[i], e.Triples()[2].Object)
	}

	alice := entities[2]
	assert.Equal(t, ex+"alice", alice.Triples()[0].Object)
	require.Len(t, alice.Triples(), 5)
	assert.Equal(t, vocabulary.RDFType, alice.Triples()[3].Predicate)
	assert.Equal(t, ex+"Person", alice.Triples()[3].Object)
	assert.Equal(t, "Alice", alice.Triples()[4].Object)

	assert.Equal(t, "_:n1", entities[3].Triples()[0].Object)
}

func TestEntitiesSkipSubGraphStatements(t *testing.T) {
	old := sampleGraph(t)
	b := rdfgraph.NewBuilder()
	_, err := b.AddTriple(rdfgraph.NewIRI(ex+"bob"), rdfgraph.NewIRI(vocabulary.RDFType), rdfgraph.NewIRI(ex+"Person"))
	require.NoError(t, err)
	fresh := b.Build()
	require.NoError(t, fresh.AddSubGraph(old))

	entities := fixedPublisher(nil).Entities(fresh)
	require.Len(t, entities, 1)
	assert.Equal(t, ex+"bob", entities[0].Triples()[0].Object)
}

func TestEntityIDStability(t *testing.T) {
	iri := rdfgraph.NewIRI(ex + "alice")
	assert.Equal(t, EntityID("g1", iri, KindIndividual), EntityID("g2", iri, KindIndividual))

	blank := rdfgraph.NewBlank("b0")
	assert.NotEqual(t, EntityID("g1", blank, KindResource), EntityID("g2", blank, KindResource))
	assert.Equal(t, EntityID("g1", blank, KindResource), EntityID("g1", blank, KindResource))

	assert.Len(t, strings.Split(EntityID("g", iri, KindClass), "."), 6)
}

func TestPublishSendsBaseMessages(t *testing.T) {
	rec := &recordingPublisher{}
	g := sampleGraph(t)

	n, err := fixedPublisher(rec).Publish(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.Len(t, rec.messages, 4)
	for _, s := range rec.subjects {
		assert.Equal(t, GraphIngestSubject, s)
	}

	require.True(t, json.Valid(rec.messages[0]))
	assert.Contains(t, string(rec.messages[0]), `"semkb"`)
	assert.Contains(t, string(rec.messages[0]), `"resource"`)
	assert.Contains(t, string(rec.messages[0]), ex+"Person")
}

func TestPublishStopsOnError(t *testing.T) {
	rec := &recordingPublisher{failAt: 2}
	n, err := fixedPublisher(rec).Publish(context.Background(), sampleGraph(t))
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "stream unavailable")
}

func TestPublishWithoutClientIsNoop(t *testing.T) {
	n, err := NewPublisher(nil, nil).Publish(context.Background(), sampleGraph(t))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recordingPublisher{}
	_, err := fixedPublisher(rec).Publish(ctx, sampleGraph(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.messages)
}

func TestHookPublishesAcceptedLoads(t *testing.T) {
	rec := &recordingPublisher{}
	store, err := kb.NewStore(kb.Options{})
	require.NoError(t, err)
	store.OnAccepted(fixedPublisher(rec).Hook())

	_, err = store.LoadContent(context.Background(), []byte(`
@prefix ex: <http://example.org/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
ex:Person a owl:Class .
ex:Robot a owl:Class .
`), ".ttl")
	require.NoError(t, err)
	assert.Len(t, rec.messages, 2)

	_, err = store.LoadContent(context.Background(), []byte(`
@prefix ex: <http://example.org/> .
ex:alice a "not a class" .
`), ".ttl")
	require.NoError(t, err)
	assert.Len(t, rec.messages, 2, "rejected graphs are not published")
}

func TestResourcePayloadValidate(t *testing.T) {
	assert.Error(t, (&ResourcePayload{}).Validate())
	assert.Error(t, (&ResourcePayload{EntityID_: "x"}).Validate())
	assert.Equal(t, ResourceType, (&ResourcePayload{}).Schema())
}
