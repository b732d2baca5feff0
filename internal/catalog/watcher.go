package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangedHandler receives the section types known after a reload.
type ChangedHandler func(types []string)

// Watcher reloads a catalog when its directory changes on disk. Bursts of
// events, as editors produce on save, collapse into one reload.
type Watcher struct {
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	onChange ChangedHandler
	log      *zap.Logger
	reload   func(f func())
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

// Watch starts watching the catalog directory.
func Watch(c *Catalog, log *zap.Logger, onChange ChangedHandler) (*Watcher, error) {
	if c.dir == "" {
		return nil, fmt.Errorf("watch catalog: no directory")
	}
	if log == nil {
		log = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.dir, err)
	}

	w := &Watcher{
		catalog:  c,
		watcher:  watcher,
		onChange: onChange,
		log:      log.Named("catalog"),
		reload:   debounce.New(100 * time.Millisecond),
		done:     make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Close stops the watcher and waits for its loop to exit. A reload still
// pending in the debouncer is dropped and onChange is not called after Close
// returns.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.reload(func() {})
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isDefinitionFile(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.reload(w.apply)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("Catalog watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) apply() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if err := w.catalog.Reload(); err != nil {
		w.log.Warn("Catalog reload failed, keeping previous definitions", zap.Error(err))
		return
	}
	types := w.catalog.Types()
	w.log.Debug("Catalog reloaded", zap.Strings("types", types))
	if w.onChange != nil {
		w.onChange(types)
	}
}
