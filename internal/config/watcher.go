package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"govkernel/internal/api"
	"govkernel/pkg/logging"
)

// ReloadFunc is invoked with a freshly parsed definition whenever its
// source file changes on disk.
type ReloadFunc func(def *api.ModuleDefinition)

// Watcher watches a directory of module definition files and debounces
// filesystem events into ReloadFunc calls, so a burst of writes from an
// editor save only triggers one reload.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange ReloadFunc

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timers  map[string]*time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher constructs a Watcher over dir. debounce defaults to 300ms if
// zero.
func NewWatcher(dir string, debounce time.Duration, onChange ReloadFunc) *Watcher {
	if debounce == 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
	}
}

// Start begins watching the directory. It returns once the watch is
// established; events are delivered on a background goroutine until Stop
// is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.running = true
	w.mu.Unlock()

	go w.loop(ctx)

	logging.Info("ConfigWatcher", "watching %s for definition changes", w.dir)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
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
			logging.Error("ConfigWatcher", err, "watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isYAMLFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	if t, ok := w.timers[event.Name]; ok {
		t.Stop()
	}
	path := event.Name
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.reload(path) })
	w.mu.Unlock()
}

func (w *Watcher) reload(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	w.mu.Unlock()

	def, err := LoadDefinition(path)
	if err != nil {
		logging.Warn("ConfigWatcher", "skipping invalid definition %s: %v", filepath.Base(path), err)
		return
	}
	w.onChange(def)
}

// Stop releases the underlying filesystem watch and cancels any pending
// debounced reloads.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)

	err := w.watcher.Close()
	w.watcher = nil
	return err
}
