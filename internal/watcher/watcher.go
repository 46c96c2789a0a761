// Package watcher implements the file watcher (A5): an fsnotify-based
// recursive watch over a workspace root that drives `--watch` recompiles.
// It is explicitly outside the analysis core (spec.md §1) - a caller of
// Workspace.PatchFile, nothing more.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// recognizedExt mirrors §6's recognized query source extensions.
var recognizedExt = map[string]bool{
	".sql": true, ".psql": true, ".pgsql": true, ".pg": true,
}

// DebounceWindow coalesces editor save bursts: two rapid writes to the
// same file within this window produce one callback, not two.
const DebounceWindow = 250 * time.Millisecond

// Watcher recursively watches root and invokes onChange(path) once per
// debounce window per changed file.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange func(path string)
	log      logrus.FieldLogger

	mu      sync.Mutex
	timers  map[string]*time.Timer
}

// New creates a Watcher rooted at root. Call Run to start processing
// events; the returned Watcher must be Closed when done.
func New(root string, onChange func(path string), log logrus.FieldLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fsw, onChange: onChange, log: log, timers: map[string]*time.Timer{}}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
}

// Run blocks, dispatching debounced onChange calls until Close is
// called, at which point its event channels close and Run returns.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !recognizedExt[filepath.Ext(ev.Name)] {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && ev.Op&fsnotify.Create != 0 {
			_ = w.fs.Add(ev.Name)
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[ev.Name]; ok {
		t.Stop()
	}
	path := ev.Name
	w.timers[path] = time.AfterFunc(DebounceWindow, func() {
		w.onChange(path)
	})
}

// Close stops watching and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}
