// Package classifier decides whether a graph document is a schema or instance
// data.
//
// The test is purely syntactic: a document is a schema when any statement has
// one of the vocabulary.SchemaTypes IRIs as its object. A document asserting
// an individual whose type is literally owl:Class is therefore a schema, even
// without any other declaration.
package classifier

import (
	"context"
	"log/slog"

	"github.com/c360studio/semkb/codec"
	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

// Kind is the classification verdict.
type Kind int

// Classification verdicts.
const (
	InstanceData Kind = iota
	Schema
)

// String returns the verdict name.
func (k Kind) String() string {
	if k == Schema {
		return "schema"
	}
	return "instance"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var schemaPattern = rdfgraph.ObjectIn(vocabulary.SchemaTypes)

// Classifier parses documents and classifies them.
type Classifier struct {
	engine *codec.Engine
	logger *slog.Logger
}

// New creates a classifier. A nil engine uses the default decoders; a nil
// logger means slog.Default().
func New(engine *codec.Engine, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = codec.NewEngine(nil, logger)
	}
	return &Classifier{engine: engine, logger: logger}
}

// Classify parses content in the format named by token and classifies it. The
// parsed graph is discarded.
func (c *Classifier) Classify(ctx context.Context, content []byte, token string) (Kind, error) {
	f, err := format.ResolveFormat(token)
	if err != nil {
		return InstanceData, err
	}

	g, err := c.engine.Parse(ctx, content, f)
	if err != nil {
		return InstanceData, err
	}

	kind := ClassifyGraph(g)
	c.logger.Debug("Classified document", "format", f, "kind", kind, "triples", g.Len())
	return kind, nil
}

// ClassifyGraph classifies an already parsed graph.
func ClassifyGraph(g *rdfgraph.Graph) Kind {
	if g.Ask(schemaPattern) {
		return Schema
	}
	return InstanceData
}
