package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups rapid writes to one file into a single rebuild.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Debounce time.Duration
	// OnBuild is called after every rebuild or removal attempt.
	OnBuild func(path string, result Result, err error)
}

// Watcher rebuilds changed files of a Builder's root.
//
// Usage:
//
//	w, err := NewWatcher(builder, selection, WatchOptions{}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	watcher   *fsnotify.Watcher
	builder   *Builder
	selection Selection
	root      string
	options   WatchOptions
	logger    *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	rebuilt atomic.Int64

	stopChan chan struct{}
	stopped  bool
	started  bool
	mu       sync.Mutex
}

// NewWatcher creates a watcher for builder.Root.
func NewWatcher(builder *Builder, selection Selection, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	if err := builder.validate(); err != nil {
		return nil, err
	}
	if err := selection.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(builder.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:        fsw,
		builder:        builder,
		selection:      selection,
		root:           root,
		options:        options,
		logger:         logger,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start watches the root and its non-excluded subdirectories. The event
// loop runs until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started")
	}
	w.started = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		return err
	}

	w.logger.Info("File watcher started", "root", w.root)

	go w.eventLoop(ctx)
	return nil
}

// addTree watches dir and every subdirectory not excluded by the selection.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (w.selection.Excluded(relSlash(w.root, path)) || w.builder.IsOutput(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the watcher and cancels pending rebuilds. Idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("File watcher stopped", "rebuilt", w.rebuilt.Load())
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case <-w.stopChan:
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
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.builder.IsOutput(path) {
		return
	}
	rel := relSlash(w.root, path)

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.selection.Excluded(rel) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !w.selection.Matches(rel) {
		return
	}

	w.logger.Debug("File event", "op", event.Op.String(), "file", path)

	switch {
	case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create):
		w.debounce(path, w.rebuild)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.debounce(path, w.remove)
	}
}

// debounce runs fn for path once no event has arrived for the debounce
// window. A later event replaces the pending action.
func (w *Watcher) debounce(path string, fn func(string)) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}

	w.debounceTimers[path] = time.AfterFunc(w.options.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		fn(path)
	})
}

func (w *Watcher) rebuild(path string) {
	result, err := w.builder.BuildFile(path)
	w.rebuilt.Add(1)
	if err != nil {
		w.logger.Warn("Failed to rebuild file", "file", path, "error", err)
	} else {
		w.logger.Info("Rebuilt file", "file", path, "amended", result.Amended)
	}
	if w.options.OnBuild != nil {
		w.options.OnBuild(path, result, err)
	}
}

func (w *Watcher) remove(path string) {
	// A rename may be followed by a create at the same path.
	if _, err := os.Stat(path); err == nil {
		w.rebuild(path)
		return
	}
	err := w.builder.Remove(path)
	if err != nil {
		w.logger.Warn("Failed to remove output", "file", path, "error", err)
	}
	if w.options.OnBuild != nil {
		w.options.OnBuild(path, Result{Path: path}, err)
	}
}

// GetStats returns watcher statistics.
func (w *Watcher) GetStats() WatcherStats {
	w.debounceMu.Lock()
	pending := len(w.debounceTimers)
	w.debounceMu.Unlock()

	w.mu.Lock()
	running := w.started && !w.stopped
	w.mu.Unlock()

	return WatcherStats{
		PendingRebuilds: pending,
		Rebuilt:         w.rebuilt.Load(),
		IsRunning:       running,
	}
}

// WatcherStats contains watcher statistics.
type WatcherStats struct {
	PendingRebuilds int
	Rebuilt         int64
	IsRunning       bool
}
