package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"

	"github.com/c360studio/semkb/instance"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

// Statement is one parameterised Cypher statement.
type Statement struct {
	Cypher string
	Params map[string]any
}

const (
	cypherClass = `MERGE (c:Class {iri: $iri})
SET c.label = $label, c.graph = $graph`
	cypherProperty = `MERGE (p:Property {iri: $iri})
SET p.label = $label, p.graph = $graph`
	cypherDomain = `MATCH (p:Property {iri: $property})
MERGE (d:Class {iri: $domain})
MERGE (p)-[:DOMAIN]->(d)`
	cypherRange = `MATCH (p:Property {iri: $property})
MERGE (r:Class {iri: $range})
MERGE (p)-[:RANGE]->(r)`
	cypherInstance = `MERGE (i:Individual {iri: $iri})
SET i.label = $label, i.graph = $graph
WITH i
MATCH (c:Class {iri: $class})
MERGE (i)-[:INSTANCE_OF]->(c)`
)

// Project maps classes, properties with their domain and range edges, and
// individuals of g onto idempotent MERGE statements.
func Project(g *rdfgraph.Graph) []Statement {
	var out []Statement
	label := func(iri string) string {
		l, _ := g.Label(rdfgraph.NewIRI(iri))
		return l
	}

	for _, c := range g.Classes() {
		out = append(out, Statement{Cypher: cypherClass, Params: map[string]any{
			"iri": c, "label": label(c), "graph": g.ID(),
		}})
	}
	for _, p := range g.Properties() {
		out = append(out, Statement{Cypher: cypherProperty, Params: map[string]any{
			"iri": p, "label": label(p), "graph": g.ID(),
		}})
		for _, d := range g.Domains(p) {
			if uri, ok := d.URI(); ok {
				out = append(out, Statement{Cypher: cypherDomain, Params: map[string]any{
					"property": p, "domain": uri,
				}})
			}
		}
		if r, ok := g.Range(p); ok {
			if uri, ok := r.URI(); ok {
				out = append(out, Statement{Cypher: cypherRange, Params: map[string]any{
					"property": p, "range": uri,
				}})
			}
		}
	}

	byClass := instance.NewFetcher(g).ListClassesAndInstances()
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		// Class and property declarations are projected above.
		if !vocabulary.IsBuiltin(c) {
			classes = append(classes, c)
		}
	}
	sort.Strings(classes)
	for _, c := range classes {
		for _, rec := range byClass[c] {
			out = append(out, Statement{Cypher: cypherInstance, Params: map[string]any{
				"iri": rec.URI, "label": rec.Label, "class": c, "graph": g.ID(),
			}})
		}
	}
	return out
}

// Neo4jConfig holds connection settings for a Neo4jSink.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jSink writes graph projections to Neo4j.
type Neo4jSink struct {
	driver   neo4j.Driver
	database string
	logger   *slog.Logger
}

// NewNeo4jSink creates a driver for cfg. No connection is made until Write
// or Verify is called.
func NewNeo4jSink(cfg Neo4jConfig, logger *slog.Logger) (*Neo4jSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriver(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Neo4jSink{driver: driver, database: cfg.Database, logger: logger}, nil
}

// Verify checks that the server is reachable.
func (s *Neo4jSink) Verify() error {
	return s.driver.VerifyConnectivity()
}

// Write runs the projection of g in a single write transaction and returns
// the number of statements executed.
func (s *Neo4jSink) Write(ctx context.Context, g *rdfgraph.Graph) (int, error) {
	statements := Project(g)
	if len(statements) == 0 {
		return 0, nil
	}

	session := s.driver.NewSession(neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close()

	_, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		for _, st := range statements {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if _, err := tx.Run(st.Cypher, st.Params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return 0, fmt.Errorf("write graph %s to neo4j: %w", g.ID(), err)
	}

	s.logger.Info("Projected graph to Neo4j", "graph_id", g.ID(), "statements", len(statements))
	return len(statements), nil
}

// Close closes the driver.
func (s *Neo4jSink) Close() error {
	return s.driver.Close()
}
