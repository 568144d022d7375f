// # internal/watcher/watcher.go
// Package watcher drives watch mode: it observes the scan root, batches
// bursts of filesystem events and hands the batch to a callback. The caller
// invalidates the graph cache and re-runs the analysis from there.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Watcher batches filesystem events with a debounce window so an editor
// save-all or a git checkout produces one callback, not dozens.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	ignoreDirs  []glob.Glob
	ignoreFiles []glob.Glob
	extensions  map[string]bool
	onChange    func([]string)
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

type Options struct {
	Debounce    time.Duration
	IgnoreDirs  []string
	IgnoreFiles []string
	// Extensions limits events to source files; empty watches everything.
	Extensions []string
}

func New(opts Options, logger *slog.Logger, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fsWatcher:  fsw,
		debounce:   opts.Debounce,
		extensions: make(map[string]bool, len(opts.Extensions)),
		onChange:   onChange,
		logger:     logger,
		pending:    make(map[string]struct{}),
	}
	for _, ext := range opts.Extensions {
		w.extensions[ext] = true
	}

	for _, pattern := range opts.IgnoreDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.ignoreDirs = append(w.ignoreDirs, g)
	}
	for _, pattern := range opts.IgnoreFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.ignoreFiles = append(w.ignoreFiles, g)
	}

	return w, nil
}

// Watch registers the root recursively and starts the event loop.
func (w *Watcher) Watch(root string) error {
	if err := w.watchRecursive(root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if w.ignoredDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// New directories need their own watches, and any files that
		// landed inside before the watch took effect count as changes.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.ignoredDir(event.Name) {
				return
			}
			if err := w.watchRecursive(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
				return
			}
			w.enqueueExisting(event.Name)
			return
		}
	}

	if !w.relevantFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.schedule(event.Name)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) > 0 {
		w.onChange(paths)
	}
}

func (w *Watcher) ignoredDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.ignoreDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) relevantFile(path string) bool {
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	base := filepath.Base(path)
	for _, g := range w.ignoreFiles {
		if g.Match(base) {
			return false
		}
	}
	return true
}

func (w *Watcher) enqueueExisting(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.relevantFile(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}
