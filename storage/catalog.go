// Package storage keeps a catalog of knowledge-base load attempts in NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/kb"
)

// BucketDocuments is the KV bucket holding one entry per load attempt.
const BucketDocuments = "SEMKB_DOCUMENTS"

// bucket is the subset of jetstream.KeyValue the catalog uses.
type bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
}

// Catalog stores kb.LoadRecord values keyed by record ID.
type Catalog struct {
	kv     bucket
	logger *slog.Logger
}

// NewCatalog opens the documents bucket, creating it if it does not exist.
func NewCatalog(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) (*Catalog, error) {
	kv, err := getOrCreateBucket(ctx, js, BucketDocuments)
	if err != nil {
		return nil, fmt.Errorf("create documents bucket: %w", err)
	}
	return newCatalog(kv, logger), nil
}

func newCatalog(kv bucket, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{kv: kv, logger: logger}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("semkb %s catalog", strings.ToLower(name)),
		History:     5,
	})
}

// Put stores or replaces a record.
func (c *Catalog) Put(ctx context.Context, rec kb.LoadRecord) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal load record: %w", err)
	}
	if _, err := c.kv.Put(ctx, rec.ID, data); err != nil {
		return fmt.Errorf("store load record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (c *Catalog) Get(ctx context.Context, id string) (*kb.LoadRecord, error) {
	entry, err := c.kv.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get load record: %w", err)
	}

	var rec kb.LoadRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal load record: %w", err)
	}
	return &rec, nil
}

// List returns every record, oldest first.
func (c *Catalog) List(ctx context.Context) ([]*kb.LoadRecord, error) {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list load record keys: %w", err)
	}

	records := make([]*kb.LoadRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := c.Get(ctx, key)
		if err != nil {
			c.logger.Debug("Skipping unreadable load record", "key", key, "error", err)
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].At.Before(records[j].At)
	})
	return records, nil
}

// ListBySource returns the records whose source matches exactly.
func (c *Catalog) ListBySource(ctx context.Context, src string) ([]*kb.LoadRecord, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []*kb.LoadRecord
	for _, rec := range all {
		if rec.Source == src {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Summary counts records by outcome and by format.
type Summary struct {
	Total     int                   `json:"total"`
	Outcomes  map[string]int        `json:"outcomes"`
	Formats   map[format.Format]int `json:"formats"`
	LastValid string                `json:"last_valid,omitempty"`
}

// Summarize aggregates the whole catalog.
func (c *Catalog) Summarize(ctx context.Context) (Summary, error) {
	records, err := c.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Total:    len(records),
		Outcomes: make(map[string]int),
		Formats:  make(map[format.Format]int),
	}
	for _, rec := range records {
		s.Outcomes[rec.Outcome]++
		if rec.Format != "" {
			s.Formats[rec.Format]++
		}
		if rec.Valid() {
			s.LastValid = rec.ID
		}
	}
	return s, nil
}

// Hook returns a kb.Hook that records every load attempt.
func (c *Catalog) Hook() kb.Hook {
	return func(ctx context.Context, ev kb.Event) error {
		return c.Put(ctx, ev.Record)
	}
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "key not found")
}
