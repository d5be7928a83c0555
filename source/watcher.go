package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semkb/format"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 500

	defaultDebounce = 500 * time.Millisecond
)

// WatchConfig configures directory watching.
type WatchConfig struct {
	// Dir is the directory watched recursively.
	Dir string

	// Include lists doublestar patterns, relative to Dir, that a file must
	// match. Empty means every file with a supported extension.
	Include []string

	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string

	// Debounce is how long to wait for more changes before emitting events.
	Debounce time.Duration
}

// WatchOperation indicates the type of file operation.
type WatchOperation string

// Watch operations.
const (
	WatchOpCreate WatchOperation = "create"
	WatchOpModify WatchOperation = "modify"
	WatchOpDelete WatchOperation = "delete"
)

// WatchEvent is a settled change to a graph document.
type WatchEvent struct {
	// Path is the file path relative to the watched directory.
	Path string

	// AbsPath is the absolute file path.
	AbsPath string

	// Operation is the type of change.
	Operation WatchOperation
}

// Watcher watches a directory tree for graph documents that appear or
// change. Events are debounced and content-hashed so saving an unchanged file
// emits nothing.
type Watcher struct {
	cfg      WatchConfig
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events chan WatchEvent

	droppedEvents atomic.Int64
}

// NewWatcher creates a watcher. A nil logger means slog.Default().
func NewWatcher(cfg WatchConfig, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}

	excludes := make(map[string]bool)
	if len(cfg.ExcludeDirs) == 0 {
		excludes[".git"] = true
	}
	for _, dir := range cfg.ExcludeDirs {
		excludes[dir] = true
	}

	return &Watcher{
		cfg:      cfg,
		watcher:  fsw,
		logger:   logger,
		excludes: excludes,
		pending:  make(map[string]fsnotify.Op),
		hashes:   make(map[string]string),
		events:   make(chan WatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of watch events. It is closed when the watcher
// stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start adds watches below the configured directory and begins emitting
// events until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Dir, 0755); err != nil {
		return err
	}
	if err := w.addWatchesRecursive(w.cfg.Dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Graph watcher started",
		"dir", w.cfg.Dir,
		"debounce", w.cfg.Debounce,
		"include", w.cfg.Include)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Existing returns the matching files already present below the directory,
// recording their hashes so an unchanged rewrite is not reported later.
func (w *Watcher) Existing() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.cfg.Dir && w.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.matches(path) {
			return nil
		}
		if content, err := os.ReadFile(path); err == nil {
			w.setHash(path, contentHash(content))
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func (w *Watcher) skipDir(base string) bool {
	return w.excludes[base] || (strings.HasPrefix(base, ".") && base != ".")
}

// matches reports whether a file path is a graph document the watcher cares
// about.
func (w *Watcher) matches(path string) bool {
	if !format.IsSupported(filepath.Ext(path)) {
		return false
	}
	rel, err := filepath.Rel(w.cfg.Dir, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part != "." && w.skipDir(part) {
			return false
		}
	}
	return MatchAny(w.cfg.Include, rel)
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.cfg.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.skipDir(filepath.Base(path)) {
				if err := w.addWatchesRecursive(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !w.matches(path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Graph document change detected", "path", path, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}

		rel, _ := filepath.Rel(w.cfg.Dir, path)
		event := WatchEvent{Path: rel, AbsPath: path}

		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				w.hashMu.Lock()
				_, known := w.hashes[path]
				delete(w.hashes, path)
				w.hashMu.Unlock()
				if known || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
					event.Operation = WatchOpDelete
					w.sendEvent(event)
				}
				continue
			}
			w.logger.Warn("Failed to read changed file", "path", rel, "error", err)
			continue
		}

		newHash := contentHash(content)
		oldHash, hadHash := w.hash(path)
		if hadHash && oldHash == newHash {
			continue
		}
		w.setHash(path, newHash)

		if hadHash {
			event.Operation = WatchOpModify
		} else {
			event.Operation = WatchOpCreate
		}
		w.sendEvent(event)
	}
}

func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}

func (w *Watcher) hash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	h, ok := w.hashes[path]
	return h, ok
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
