package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360studio/semkb/codec"
	"github.com/c360studio/semkb/config"
	"github.com/c360studio/semkb/export"
	"github.com/c360studio/semkb/graph"
	"github.com/c360studio/semkb/kb"
	"github.com/c360studio/semkb/source"
	"github.com/c360studio/semkb/storage"
)

// App wires the knowledge base to its optional NATS and Neo4j collaborators.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	engine   *codec.Engine
	fetcher  *source.Fetcher
	store    *kb.Store
	registry *prometheus.Registry

	natsClient *natsclient.Client
	catalog    *storage.Catalog
	publisher  *graph.Publisher
}

// NewApp builds the in-process components. Nothing is connected until Start.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	strategy, err := kb.ParseStrategy(cfg.KB.Strategy)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := codec.NewEngine(nil, logger)
	fetcher := source.NewFetcher(cfg.Fetch.Source(), logger)
	store, err := kb.NewStore(kb.Options{
		Strategy:    strategy,
		HistorySize: cfg.KB.HistorySize,
		Engine:      engine,
		Fetcher:     fetcher,
		Registerer:  registry,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create knowledge base: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		fetcher:  fetcher,
		store:    store,
		registry: registry,
	}, nil
}

// Start connects to NATS when the catalog or publisher is enabled.
func (a *App) Start(ctx context.Context) error {
	if !a.cfg.NATS.Catalog && !a.cfg.NATS.Publish {
		return nil
	}

	client, err := connectToNATS(ctx, a.cfg.NATS.URL, a.logger)
	if err != nil {
		return err
	}
	a.natsClient = client

	js, err := client.JetStream()
	if err != nil {
		return fmt.Errorf("get JetStream context: %w", err)
	}

	if a.cfg.NATS.Catalog {
		catalog, err := storage.NewCatalog(ctx, js, a.logger)
		if err != nil {
			return err
		}
		a.catalog = catalog
		a.store.OnLoad(catalog.Hook())
	}
	if a.cfg.NATS.Publish {
		if err := graph.EnsureStream(ctx, js); err != nil {
			return err
		}
		a.publisher = graph.NewPublisher(client, a.logger)
		a.store.OnAccepted(a.publisher.Hook())
	}
	return nil
}

// Close releases the NATS connection.
func (a *App) Close(ctx context.Context) {
	if a.natsClient != nil {
		if err := a.natsClient.Close(ctx); err != nil {
			a.logger.Warn("Failed to close NATS client", "error", err)
		}
	}
}

// loadOutcome is one line of `semkb load` output.
type loadOutcome struct {
	Source string
	Result kb.Result
	Err    error
}

func (o loadOutcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("error     %s: %v", o.Source, o.Err)
	case o.Result.Valid:
		return fmt.Sprintf("accepted  %s (%d triples)", o.Source, o.Result.Triples)
	default:
		var issues []string
		for _, is := range o.Result.Issues {
			issues = append(issues, is.String())
		}
		return fmt.Sprintf("rejected  %s (%d triples): %s", o.Source, o.Result.Triples, strings.Join(issues, "; "))
	}
}

// LoadAll expands patterns and loads every source in order. Individual load
// failures are reported in the outcomes; only expansion errors abort.
func (a *App) LoadAll(ctx context.Context, patterns []string, token string) ([]loadOutcome, error) {
	refs, err := source.ExpandPaths(patterns)
	if err != nil {
		return nil, err
	}
	out := make([]loadOutcome, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := a.store.LoadURI(ctx, ref, token)
		out = append(out, loadOutcome{Source: ref, Result: res, Err: err})
	}
	return out, nil
}

// Project writes the current accumulation to Neo4j.
func (a *App) Project(ctx context.Context) (int, error) {
	if a.cfg.Neo4j.URI == "" {
		return 0, errors.New("neo4j.uri is not configured")
	}
	sink, err := export.NewNeo4jSink(export.Neo4jConfig{
		URI:      a.cfg.Neo4j.URI,
		Username: a.cfg.Neo4j.Username,
		Password: a.cfg.Neo4j.Password,
		Database: a.cfg.Neo4j.Database,
	}, a.logger)
	if err != nil {
		return 0, err
	}
	defer sink.Close()
	return sink.Write(ctx, a.store.Current())
}

func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(5),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Start a server with JetStream enabled:
  docker run -p 4222:4222 nats -js

Or set SEMKB_NATS_URL to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}
