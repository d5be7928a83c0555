// Package kb owns the accumulated knowledge base.
//
// A Store holds one current graph. Every load parses a fresh graph, runs the
// consistency validator on it and, only when it is valid, folds it into the
// accumulation according to the configured Strategy. Loads are serialised;
// readers take the current graph as a snapshot that never changes under them.
package kb

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semkb/codec"
	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/source"
)

const defaultHistorySize = 100

// Options configures a Store.
type Options struct {
	// Strategy selects the fold behaviour. Empty means DefaultStrategy.
	Strategy Strategy

	// HistorySize bounds the number of retained load records.
	HistorySize int

	// Engine parses documents. Nil uses the default decoders.
	Engine *codec.Engine

	// Fetcher reads files and remote URIs for LoadURI. Nil uses
	// source.DefaultFetchConfig.
	Fetcher *source.Fetcher

	// Registerer receives the store metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of a load that reached the validator.
type Result struct {
	// Valid reports whether the fresh graph passed validation and was folded in.
	Valid bool `json:"valid"`

	// GraphID identifies the freshly parsed graph.
	GraphID string `json:"graph_id"`

	// RootID identifies the accumulation root after the load.
	RootID string `json:"root_id"`

	// Triples is the number of statements in the fresh graph.
	Triples int `json:"triples"`

	// Issues lists the contradictions that caused a rejection.
	Issues []rdfgraph.Issue `json:"issues,omitempty"`
}

// LoadRecord is the history entry kept for every load attempt.
type LoadRecord struct {
	ID       string        `json:"id"`
	Source   string        `json:"source,omitempty"`
	Format   format.Format `json:"format,omitempty"`
	Outcome  string        `json:"outcome"`
	GraphID  string        `json:"graph_id,omitempty"`
	RootID   string        `json:"root_id,omitempty"`
	Triples  int           `json:"triples"`
	Issues   []string      `json:"issues,omitempty"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
}

// Valid reports whether the load was accepted.
func (r LoadRecord) Valid() bool {
	return r.Outcome == OutcomeAccepted
}

// Event is passed to hooks after a load attempt finishes.
type Event struct {
	Record LoadRecord

	// Graph is the accepted fresh graph. It is nil unless the load was accepted.
	Graph *rdfgraph.Graph
}

// Hook observes finished loads. Hook errors are logged and never fail the load.
type Hook func(ctx context.Context, ev Event) error

// Store is the accumulated knowledge base.
type Store struct {
	strategy Strategy
	engine   *codec.Engine
	fetcher  *source.Fetcher
	logger   *slog.Logger
	metrics  *storeMetrics

	// mu serialises loads and guards the hook lists.
	mu      sync.Mutex
	current atomic.Pointer[rdfgraph.Graph]

	onLoad     []Hook
	onAccepted []Hook

	historyMu   sync.RWMutex
	history     []LoadRecord
	historySize int
}

// NewStore creates a store whose current graph is empty.
func NewStore(opts Options) (*Store, error) {
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = codec.NewEngine(nil, logger)
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = source.NewFetcher(source.DefaultFetchConfig(), logger)
	}
	historySize := opts.HistorySize
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	metrics, err := newStoreMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}

	s := &Store{
		strategy:    strategy,
		engine:      engine,
		fetcher:     fetcher,
		logger:      logger,
		metrics:     metrics,
		historySize: historySize,
	}
	s.current.Store(rdfgraph.New())
	return s, nil
}

// Strategy returns the fold strategy in use.
func (s *Store) Strategy() Strategy {
	return s.strategy
}

// Current returns the accumulation root at the time of the call. Later loads
// replace the store's reference but never change what a held snapshot sees.
func (s *Store) Current() *rdfgraph.Graph {
	return s.current.Load()
}

// OnLoad registers a hook run after every load attempt.
func (s *Store) OnLoad(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLoad = append(s.onLoad, h)
}

// OnAccepted registers a hook run after every accepted load.
func (s *Store) OnAccepted(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAccepted = append(s.onAccepted, h)
}

// LoadContent parses content in the format named by token and accumulates it.
// Unknown tokens fail with *format.UnsupportedFormatError and parse failures
// with *rdfgraph.ParseError; in both cases the accumulation is unchanged. A
// graph that fails validation is not an error: the result has Valid false.
func (s *Store) LoadContent(ctx context.Context, content []byte, token string) (Result, error) {
	start := time.Now()
	f, err := format.ResolveFormat(token)
	if err != nil {
		s.fail(ctx, "", "", start, err)
		return Result{}, err
	}
	g, err := s.engine.Parse(ctx, content, f)
	if err != nil {
		s.fail(ctx, "", f, start, err)
		return Result{}, err
	}
	return s.accumulate(ctx, g, "", f, start)
}

// LoadURI reads a file path or http(s) URI and accumulates it. An empty token
// resolves the format from the reference itself.
func (s *Store) LoadURI(ctx context.Context, ref, token string) (Result, error) {
	start := time.Now()
	doc, err := s.fetcher.Fetch(ctx, ref, token)
	if err != nil {
		s.fail(ctx, ref, "", start, err)
		return Result{}, err
	}
	g, err := s.engine.ParseSource(ctx, ref, doc.Content, doc.Format)
	if err != nil {
		s.fail(ctx, ref, doc.Format, start, err)
		return Result{}, err
	}
	return s.accumulate(ctx, g, ref, doc.Format, start)
}

// LoadGraph validates and accumulates an already parsed graph.
func (s *Store) LoadGraph(ctx context.Context, g *rdfgraph.Graph, src string, f format.Format) (Result, error) {
	return s.accumulate(ctx, g, src, f, time.Now())
}

func (s *Store) accumulate(ctx context.Context, fresh *rdfgraph.Graph, src string, f format.Format, start time.Time) (Result, error) {
	s.mu.Lock()

	report, err := fresh.Validate(ctx)
	if err != nil {
		s.mu.Unlock()
		perr := rdfgraph.NewParseError(rdfgraph.EngineError, f, src, err)
		s.fail(ctx, src, f, start, perr)
		return Result{}, perr
	}

	res := Result{
		Valid:   report.Valid,
		GraphID: fresh.ID(),
		Triples: fresh.OwnLen(),
		Issues:  report.Issues,
	}

	prev := s.current.Load()
	outcome := OutcomeRejected
	if report.Valid {
		next, err := s.strategy.fold(prev, fresh)
		if err != nil {
			s.mu.Unlock()
			perr := rdfgraph.NewParseError(rdfgraph.EngineError, f, src, err)
			s.fail(ctx, src, f, start, perr)
			return Result{}, perr
		}
		s.current.Store(next)
		s.metrics.recordAccumulation(next.Len(), next.Depth())
		outcome = OutcomeAccepted
	}
	res.RootID = s.current.Load().ID()

	onLoad := append([]Hook(nil), s.onLoad...)
	onAccepted := append([]Hook(nil), s.onAccepted...)
	s.mu.Unlock()

	rec := LoadRecord{
		ID:       uuid.New().String(),
		Source:   src,
		Format:   f,
		Outcome:  outcome,
		GraphID:  res.GraphID,
		RootID:   res.RootID,
		Triples:  res.Triples,
		At:       start.UTC(),
		Duration: time.Since(start),
	}
	for _, is := range report.Issues {
		rec.Issues = append(rec.Issues, is.String())
	}
	s.metrics.recordLoad(outcome, rec.Duration)
	s.remember(rec)

	s.logger.Info("Load validated",
		"source", src,
		"format", f,
		"graph_id", res.GraphID,
		"valid", res.Valid,
		"triples", res.Triples,
		"issues", len(res.Issues))

	ev := Event{Record: rec}
	if res.Valid {
		ev.Graph = fresh
	}
	s.runHooks(ctx, onLoad, ev)
	if res.Valid {
		s.runHooks(ctx, onAccepted, ev)
	}
	return res, nil
}

// fail records a load that never reached a verdict.
func (s *Store) fail(ctx context.Context, src string, f format.Format, start time.Time, err error) {
	kind := "unsupported_format"
	if k := rdfgraph.KindOf(err); k != 0 {
		kind = k.String()
	} else if !errors.Is(err, format.ErrUnsupportedFormat) {
		kind = rdfgraph.EngineError.String()
	}

	rec := LoadRecord{
		ID:       uuid.New().String(),
		Source:   src,
		Format:   f,
		Outcome:  OutcomeError,
		RootID:   s.current.Load().ID(),
		Error:    err.Error(),
		At:       start.UTC(),
		Duration: time.Since(start),
	}
	s.metrics.recordLoad(OutcomeError, rec.Duration)
	s.metrics.recordParseError(kind)
	s.remember(rec)

	s.logger.Warn("Load failed", "source", src, "format", f, "kind", kind, "error", err)

	s.mu.Lock()
	onLoad := append([]Hook(nil), s.onLoad...)
	s.mu.Unlock()
	s.runHooks(ctx, onLoad, Event{Record: rec})
}

func (s *Store) runHooks(ctx context.Context, hooks []Hook, ev Event) {
	for _, h := range hooks {
		if err := h(ctx, ev); err != nil {
			s.logger.Warn("Load hook failed",
				"source", ev.Record.Source,
				"outcome", ev.Record.Outcome,
				"error", err)
		}
	}
}

func (s *Store) remember(rec LoadRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	s.history = append(s.history, rec)
	if over := len(s.history) - s.historySize; over > 0 {
		s.history = append([]LoadRecord(nil), s.history[over:]...)
	}
}

// History returns the retained load records, oldest first.
func (s *Store) History() []LoadRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	out := make([]LoadRecord, len(s.history))
	copy(out, s.history)
	return out
}
