// Package watch re-runs indexing when source files under a directory change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pageindex/internal/codeindex"
	"pageindex/internal/logging"
)

// ChangeFunc receives the settled set of changed paths, sorted.
type ChangeFunc func(ctx context.Context, changed []string) error

// Stats tracks watcher activity.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Batches       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// Watcher watches a directory tree for changes to files that have a
// registered parser and calls a ChangeFunc once changes settle.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	root        string
	factory     *codeindex.ParserFactory
	onChange    ChangeFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	tick        time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// New creates a watcher for root. Only files that factory can parse are
// reported.
func New(root string, factory *codeindex.ParserFactory, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:     fw,
		root:        root,
		factory:     factory,
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		tick:        min(debounce/5, 100*time.Millisecond),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds root and its subdirectories to the watch list and begins
// processing events in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Watch("watching %s (debounce %v)", w.root, w.debounceDur)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// addTree watches dir and every non-skipped directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logging.Get(logging.CategoryWatch).Warn("skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && codeindex.IsSkippedEntry(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		logging.WatchDebug("watching directory %s", path)
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !codeindex.IsSkippedEntry(filepath.Base(event.Name)) {
				if err := w.addTree(event.Name); err != nil {
					logging.Get(logging.CategoryWatch).Warn("failed to watch new directory %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	if codeindex.IsSkippedEntry(filepath.Base(event.Name)) || !w.factory.HasParser(event.Name) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}
	w.debounceMap[event.Name] = time.Now()
}

// processDebounced hands paths whose last event is older than the debounce
// window to the callback as one batch.
func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	if len(settled) > 0 {
		w.stats.Batches++
	}
	w.mu.Unlock()

	if len(settled) == 0 || w.onChange == nil {
		return
	}
	sort.Strings(settled)

	logging.Watch("%d file(s) changed", len(settled))
	if err := w.onChange(ctx, settled); err != nil {
		logging.Get(logging.CategoryWatch).Error("change handler failed: %v", err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
	}
}
