package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

const turtleDoc = `@prefix ex: <http://example.org/> .
ex:a ex:p ex:b .
`

func testFetcher() *Fetcher {
	cfg := DefaultFetchConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second
	return NewFetcher(cfg, nil)
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.TTL")
	require.NoError(t, os.WriteFile(path, []byte(turtleDoc), 0644))

	doc, err := testFetcher().Fetch(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, format.Turtle, doc.Format)
	assert.Equal(t, ".ttl", doc.Token)
	assert.Equal(t, turtleDoc, string(doc.Content))
}

func TestFetchExplicitTokenWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(turtleDoc), 0644))

	doc, err := testFetcher().Fetch(context.Background(), path, ".ttl")
	require.NoError(t, err)
	assert.Equal(t, format.Turtle, doc.Format)
}

func TestFetchUnsupportedToken(t *testing.T) {
	_, err := testFetcher().Fetch(context.Background(), "/does/not/matter.csv", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)

	_, err = testFetcher().Fetch(context.Background(), "/does/not/matter.ttl", ".csv")
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestFetchMissingFile(t *testing.T) {
	_, err := testFetcher().Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.ttl"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rdfgraph.ErrConnectionRefused)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetchMaxBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.nt")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0644))

	cfg := DefaultFetchConfig()
	cfg.MaxBytes = 10
	_, err := NewFetcher(cfg, nil).Fetch(context.Background(), path, "")
	assert.ErrorIs(t, err, rdfgraph.ErrConnectionRefused)
}

func TestFetchRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "text/turtle")
		w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
		_, _ = w.Write([]byte(turtleDoc))
	}))
	defer srv.Close()

	t.Run("extension", func(t *testing.T) {
		doc, err := testFetcher().Fetch(context.Background(), srv.URL+"/vocab.ttl?v=1", "")
		require.NoError(t, err)
		assert.Equal(t, format.Turtle, doc.Format)
		assert.Equal(t, turtleDoc, string(doc.Content))
	})

	t.Run("content type", func(t *testing.T) {
		doc, err := testFetcher().Fetch(context.Background(), srv.URL+"/vocab", "")
		require.NoError(t, err)
		assert.Equal(t, format.Turtle, doc.Format)
		assert.Equal(t, ".ttl", doc.Token)
	})
}

func TestFetchRemoteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(turtleDoc))
	}))
	defer srv.Close()

	doc, err := testFetcher().Fetch(context.Background(), srv.URL+"/vocab.ttl", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.NotEmpty(t, doc.Content)
}

func TestFetchRemoteClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/vocab.ttl", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rdfgraph.ErrConnectionRefused)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRemoteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testFetcher().Fetch(context.Background(), url+"/vocab.ttl", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rdfgraph.ErrConnectionRefused)

	var pe *rdfgraph.ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Retryable())
	assert.Equal(t, format.Turtle, pe.Format)
}

func TestFetchRemoteUnknownContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("a,b"))
	}))
	defer srv.Close()

	_, err := testFetcher().Fetch(context.Background(), srv.URL+"/data", "")
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestFetchRemoteHTMLIslands(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
<script type="application/ld+json">{"@id": "http://example.org/a", "@type": "http://example.org/T"}</script>
</head><body></body></html>`))
	}))
	defer srv.Close()

	doc, err := testFetcher().Fetch(context.Background(), srv.URL+"/page", "")
	require.NoError(t, err)
	assert.Equal(t, format.JSONLD, doc.Format)
	assert.JSONEq(t, `{"@id": "http://example.org/a", "@type": "http://example.org/T"}`, string(doc.Content))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("http://example.org/a.ttl"))
	assert.True(t, IsRemote("HTTPS://example.org/a.ttl"))
	assert.False(t, IsRemote("/tmp/a.ttl"))
	assert.False(t, IsRemote("file:///tmp/a.ttl"))
}
