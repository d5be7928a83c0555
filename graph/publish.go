// Package graph forwards accepted knowledge-base graphs to the semstreams
// graph ingestion stream, one entity per RDF subject.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semkb/kb"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

// Subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// StreamName is the JetStream stream that captures GraphIngestSubject.
const StreamName = "GRAPH"

// Predicates added to every published entity.
const (
	PredicateIRI   = "semkb.rdf.iri"
	PredicateGraph = "semkb.rdf.graph"
	PredicateKind  = "semkb.rdf.kind"
)

const publishSource = "semkb.kb"

// Entity kinds, used as the type segment of entity IDs.
const (
	KindClass      = "class"
	KindProperty   = "property"
	KindIndividual = "individual"
	KindResource   = "resource"
)

// StreamPublisher is satisfied by *natsclient.Client.
type StreamPublisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// Publisher converts graphs to ResourcePayload messages and publishes them.
type Publisher struct {
	nc     StreamPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher returns a publisher. A nil client makes every publish a no-op.
func NewPublisher(nc StreamPublisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger, now: time.Now}
}

// EnsureStream creates or updates the stream backing the ingest subject.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"graph.ingest.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("ensure %s stream: %w", StreamName, err)
	}
	return nil
}

// Entities groups the statements parsed into g itself by subject. Statements
// from sub-graphs are not included: they were published with their own load.
func (p *Publisher) Entities(g *rdfgraph.Graph) []*ResourcePayload {
	now := p.now()
	kinds := kindsOf(g)

	var order []rdfgraph.Term
	bySubject := make(map[rdfgraph.Term]*ResourcePayload)
	for _, t := range g.OwnTriples() {
		e, ok := bySubject[t.S]
		if !ok {
			kind := kinds[t.S]
			if kind == "" {
				kind = KindResource
			}
			id := EntityID(g.ID(), t.S, kind)
			e = &ResourcePayload{EntityID_: id, UpdatedAt: now}
			e.TripleData = append(e.TripleData,
				triple(id, PredicateIRI, termValue(t.S), now),
				triple(id, PredicateGraph, g.ID(), now),
				triple(id, PredicateKind, kind, now))
			bySubject[t.S] = e
			order = append(order, t.S)
		}
		e.TripleData = append(e.TripleData, triple(e.EntityID_, t.P.Value, objectValue(t.O), now))
	}

	out := make([]*ResourcePayload, 0, len(order))
	for _, s := range order {
		out = append(out, bySubject[s])
	}
	return out
}

// Publish sends one message per subject of g and returns how many were sent.
func (p *Publisher) Publish(ctx context.Context, g *rdfgraph.Graph) (int, error) {
	if p.nc == nil || g == nil {
		return 0, nil
	}

	sent := 0
	for _, entity := range p.Entities(g) {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		msg := message.NewBaseMessage(ResourceType, entity, publishSource)
		data, err := json.Marshal(msg)
		if err != nil {
			return sent, fmt.Errorf("marshal resource entity: %w", err)
		}
		if err := p.nc.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
			return sent, fmt.Errorf("publish resource entity %s: %w", entity.EntityID_, err)
		}
		sent++
	}

	p.logger.Debug("Published graph entities", "graph_id", g.ID(), "entities", sent)
	return sent, nil
}

// Hook returns a kb.Hook for kb.Store.OnAccepted.
func (p *Publisher) Hook() kb.Hook {
	return func(ctx context.Context, ev kb.Event) error {
		if ev.Graph == nil {
			return nil
		}
		_, err := p.Publish(ctx, ev.Graph)
		return err
	}
}

// EntityID derives a stable entity ID for subject. IRIs map to the same ID in
// every graph; blank nodes are scoped to the graph that holds them.
// Format: semkb.local.kb.rdf.<kind>.<uuid>
func EntityID(graphID string, subject rdfgraph.Term, kind string) string {
	name := subject.Value
	if subject.IsBlank() {
		name = graphID + "/_:" + subject.Value
	}
	return fmt.Sprintf("semkb.local.kb.rdf.%s.%s", kind, uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)))
}

func kindsOf(g *rdfgraph.Graph) map[rdfgraph.Term]string {
	kinds := make(map[rdfgraph.Term]string)
	for _, c := range g.Classes() {
		kinds[rdfgraph.NewIRI(c)] = KindClass
	}
	for _, p := range g.Properties() {
		kinds[rdfgraph.NewIRI(p)] = KindProperty
	}
	typ := rdfgraph.NewIRI(vocabulary.RDFType)
	for _, t := range g.Find(nil, &typ, nil) {
		if _, ok := kinds[t.S]; !ok {
			kinds[t.S] = KindIndividual
		}
	}
	return kinds
}

func objectValue(o rdfgraph.Term) any {
	return termValue(o)
}

func termValue(t rdfgraph.Term) string {
	if t.IsBlank() {
		return "_:" + t.Value
	}
	return t.Value
}

func triple(subject, predicate string, object any, now time.Time) message.Triple {
	return message.Triple{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Source:     publishSource,
		Timestamp:  now,
		Confidence: 1.0,
	}
}
