package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/semstreams/pkg/retry"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// Document is the raw content of one source together with its resolved format.
type Document struct {
	// Source is the file path or URI the content was read from.
	Source string

	// Token is the lower-cased extension token the format was resolved from.
	Token string

	// Format is the serialisation format of Content.
	Format format.Format

	// Content holds the serialised graph.
	Content []byte

	// MediaType is the Content-Type reported by a remote server, if any.
	MediaType string
}

// FetchConfig configures the fetch transport.
type FetchConfig struct {
	// Timeout bounds a single remote request.
	Timeout time.Duration

	// MaxAttempts is the number of tries for a remote source.
	MaxAttempts int

	// InitialDelay is the first backoff delay between attempts.
	InitialDelay time.Duration

	// MaxBytes caps the size of a fetched document. Zero means no cap.
	MaxBytes int64

	// UserAgent is sent with remote requests.
	UserAgent string
}

// DefaultFetchConfig returns the default transport settings.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:      30 * time.Second,
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxBytes:     64 << 20,
		UserAgent:    "semkb/1.0",
	}
}

// acceptHeader lists the RDF media types the fetcher asks servers for.
const acceptHeader = "text/turtle, application/rdf+xml;q=0.9, application/ld+json;q=0.9, " +
	"application/n-triples;q=0.8, application/n-quads;q=0.8, application/trig;q=0.8, " +
	"text/html;q=0.5, */*;q=0.1"

// Fetcher reads documents from local paths and http(s) URIs.
type Fetcher struct {
	cfg    FetchConfig
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a fetcher. A nil logger means slog.Default().
func NewFetcher(cfg FetchConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// IsRemote reports whether ref is an http or https URI.
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Fetch reads ref. The format comes from token when it is not empty, otherwise
// from the extension of ref and, for remote sources, the response
// Content-Type. Unknown tokens fail with *format.UnsupportedFormatError before
// any I/O. Unreachable sources fail with a ConnectionRefused *rdfgraph.ParseError.
func (f *Fetcher) Fetch(ctx context.Context, ref, token string) (*Document, error) {
	doc := &Document{Source: ref}
	if token != "" {
		resolved, err := format.ResolveFormat(token)
		if err != nil {
			return nil, err
		}
		doc.Format = resolved
		doc.Token = strings.ToLower(token)
	} else if resolved, tok, err := format.FromPath(ref); err == nil {
		doc.Format = resolved
		doc.Token = tok
	} else if !IsRemote(ref) {
		return nil, err
	}

	if IsRemote(ref) {
		if err := f.fetchRemote(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	path := strings.TrimPrefix(ref, "file://")
	content, err := f.readFile(path)
	if err != nil {
		return nil, rdfgraph.NewParseError(rdfgraph.ConnectionRefused, doc.Format, ref, err)
	}
	doc.Content = content
	return doc, nil
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.readAll(file)
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	if f.cfg.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	content, err := io.ReadAll(io.LimitReader(r, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > f.cfg.MaxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", f.cfg.MaxBytes)
	}
	return content, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, doc *Document) error {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = f.cfg.MaxAttempts
	if f.cfg.InitialDelay > 0 {
		retryCfg.InitialDelay = f.cfg.InitialDelay
		if retryCfg.MaxDelay < retryCfg.InitialDelay {
			retryCfg.MaxDelay = retryCfg.InitialDelay
		}
	}

	attempt := 0
	err := retry.Do(ctx, retryCfg, func() error {
		attempt++
		err := f.get(ctx, doc)
		if err != nil {
			f.logger.Debug("Fetch attempt failed",
				"source", doc.Source,
				"attempt", attempt,
				"retryable", !retry.IsNonRetryable(err),
				"error", err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	var unsupported *format.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return unsupported
	}
	return rdfgraph.NewParseError(rdfgraph.ConnectionRefused, doc.Format, doc.Source, err)
}

func (f *Fetcher) get(ctx context.Context, doc *Document) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.Source, nil)
	if err != nil {
		return retry.NonRetryable(err)
	}
	req.Header.Set("Accept", acceptHeader)
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("GET %s: %s", doc.Source, resp.Status)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.NonRetryable(err)
		}
		return err
	}

	content, err := f.readAll(resp.Body)
	if err != nil {
		return err
	}

	doc.MediaType = resp.Header.Get("Content-Type")
	if isHTML(doc.MediaType) && (doc.Format == "" || doc.Format == format.JSONLD) {
		islands, err := ExtractJSONLD(content)
		if err != nil {
			return retry.NonRetryable(err)
		}
		doc.Format = format.JSONLD
		doc.Token = ".jsonld"
		doc.Content = islands
		return nil
	}

	if doc.Format == "" {
		mt, ok := format.FromMIMEType(doc.MediaType)
		if !ok {
			return retry.NonRetryable(&format.UnsupportedFormatError{
				Token:     mediaTypeToken(doc.MediaType),
				Supported: format.Tokens(),
			})
		}
		doc.Format = mt
		if info, ok := format.Lookup(mt); ok {
			doc.Token = info.Extensions[0]
		}
	}
	doc.Content = content
	return nil
}

func isHTML(mediaType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0]))
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func mediaTypeToken(mediaType string) string {
	if mediaType == "" {
		return "(no extension)"
	}
	return mediaType
}
