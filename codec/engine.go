package codec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// Engine parses documents into graphs.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEngine creates an engine over registry. A nil registry means
// DefaultRegistry; a nil logger means slog.Default().
func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = DefaultRegistry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// Parse decodes content in format f into a new graph.
func (e *Engine) Parse(ctx context.Context, content []byte, f format.Format) (*rdfgraph.Graph, error) {
	return e.ParseSource(ctx, "", content, f)
}

// ParseSource is Parse with the originating file path or URI recorded in any
// returned error.
func (e *Engine) ParseSource(ctx context.Context, src string, content []byte, f format.Format) (*rdfgraph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, rdfgraph.NewParseError(rdfgraph.EngineError, f, src, err)
	}

	dec, ok := e.registry.Get(f)
	if !ok {
		return nil, rdfgraph.NewParseError(rdfgraph.EngineError, f, src,
			fmt.Errorf("no decoder registered for %s", f))
	}

	b := rdfgraph.NewBuilder()
	if err := dec.Decode(content, b); err != nil {
		e.logger.Debug("Decode failed", "format", f, "source", src, "error", err)
		return nil, rdfgraph.NewParseError(rdfgraph.MalformedSyntax, f, src, err)
	}

	g := b.Build()
	e.logger.Debug("Parsed graph",
		"format", f,
		"source", src,
		"graph_id", g.ID(),
		"triples", g.OwnLen())
	return g, nil
}
