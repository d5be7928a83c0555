package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, cfg WatchConfig) *Watcher {
	t.Helper()
	w, err := NewWatcher(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w
}

func nextEvent(t *testing.T, w *Watcher) WatchEvent {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return WatchEvent{}
	}
}

func TestWatcherEmitsCreateModifyDelete(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, WatchConfig{Dir: dir, Debounce: 50 * time.Millisecond})

	path := filepath.Join(dir, "vocab.ttl")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0644))
	ev := nextEvent(t, w)
	assert.Equal(t, WatchOpCreate, ev.Operation)
	assert.Equal(t, "vocab.ttl", ev.Path)
	assert.Equal(t, path, ev.AbsPath)

	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))
	ev = nextEvent(t, w)
	assert.Equal(t, WatchOpModify, ev.Operation)

	require.NoError(t, os.Remove(path))
	ev = nextEvent(t, w)
	assert.Equal(t, WatchOpDelete, ev.Operation)
}

func TestWatcherIgnoresUnsupportedAndExcluded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "skip"), 0755))
	w := startWatcher(t, WatchConfig{
		Dir:         dir,
		ExcludeDirs: []string{"skip"},
		Include:     []string{"**/*.nt"},
		Debounce:    50 * time.Millisecond,
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip", "a.nt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.ttl"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.nt"), []byte("x"), 0644))

	ev := nextEvent(t, w)
	assert.Equal(t, "kept.nt", ev.Path)

	select {
	case extra := <-w.Events():
		t.Fatalf("unexpected event %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherExistingSuppressesUnchangedRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.ttl")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))
	writeFiles(t, dir, ".hidden/x.ttl", "readme.md")

	w := startWatcher(t, WatchConfig{Dir: dir, Debounce: 50 * time.Millisecond})
	existing, err := w.Existing()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, existing)

	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))
	ev := nextEvent(t, w)
	assert.Equal(t, WatchOpModify, ev.Operation)
}
