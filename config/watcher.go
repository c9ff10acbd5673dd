// File tree watcher: polls a directory tree for created/modified/removed
// files matching a set of extensions, and dispatches debounced change
// events to registered callbacks.
package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// prunedDirs are directory names never descended into while walking the
// watched tree.
var prunedDirs = map[string]bool{".git": true, "target": true}

// FileWatcher recursively watches a directory tree for files matching a set
// of extensions.
type FileWatcher struct {
	mu sync.RWMutex

	root          string
	extensions    map[string]bool
	debounceDelay time.Duration

	running  bool
	stopChan chan struct{}

	eventChan chan FileEvent
	callbacks []func(FileEvent)

	logger *zap.Logger

	lastModTimes map[string]time.Time
}

// FileEvent represents a file change event.
type FileEvent struct {
	Path      string
	Op        FileOp
	Timestamp time.Time
	Error     error
}

type FileOp int

const (
	FileOpCreate FileOp = iota
	FileOpWrite
	FileOpRemove
)

func (op FileOp) String() string {
	switch op {
	case FileOpCreate:
		return "CREATE"
	case FileOpWrite:
		return "WRITE"
	case FileOpRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

type WatcherOption func(*FileWatcher)

func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *FileWatcher) { w.debounceDelay = d }
}

func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *FileWatcher) { w.logger = logger }
}

// NewFileWatcher creates a watcher rooted at root, matching files whose
// extension (".yaml", ".md", ...) is in extensions.
func NewFileWatcher(root string, extensions []string, opts ...WatcherOption) (*FileWatcher, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}

	w := &FileWatcher{
		root:          root,
		extensions:    extSet,
		debounceDelay: 500 * time.Millisecond,
		stopChan:      make(chan struct{}),
		eventChan:     make(chan FileEvent, 100),
		callbacks:     make([]func(FileEvent), 0),
		lastModTimes:  make(map[string]time.Time),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			w.logger.Warn("watch root does not exist yet", zap.String("root", root))
		} else {
			return nil, fmt.Errorf("stat watch root %s: %w", root, err)
		}
	}

	return w, nil
}

func (w *FileWatcher) OnChange(callback func(FileEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins polling the tree (≤1s interval) and dispatching debounced
// events to callbacks on a separate goroutine from the poller itself.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	snapshot := make(map[string]time.Time)
	_ = w.walk(func(path string, modTime time.Time) { snapshot[path] = modTime })
	w.mu.Lock()
	w.lastModTimes = snapshot
	w.mu.Unlock()

	go w.pollLoop(ctx)
	go w.dispatchLoop(ctx)

	w.logger.Info("file watcher started", zap.String("root", w.root), zap.Duration("debounce", w.debounceDelay))
	return nil
}

func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	close(w.stopChan)
	w.running = false
	w.logger.Info("file watcher stopped")
	return nil
}

func (w *FileWatcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *FileWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.checkFiles()
		}
	}
}

// walk traverses the tree rooted at w.root, visiting every file whose
// extension is watched, pruning .git and target directories.
func (w *FileWatcher) walk(visit func(path string, modTime time.Time)) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if prunedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.extensions[filepath.Ext(path)] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		visit(path, info.ModTime())
		return nil
	})
}

// checkFiles diffs the current tree snapshot against the last one and
// synthesizes CREATE/WRITE/REMOVE events for every difference.
func (w *FileWatcher) checkFiles() {
	current := make(map[string]time.Time)
	_ = w.walk(func(path string, modTime time.Time) { current[path] = modTime })

	w.mu.Lock()
	defer w.mu.Unlock()

	for path, modTime := range current {
		lastMod, existed := w.lastModTimes[path]
		if !existed {
			w.eventChan <- FileEvent{Path: path, Op: FileOpCreate, Timestamp: time.Now()}
		} else if modTime.After(lastMod) {
			w.eventChan <- FileEvent{Path: path, Op: FileOpWrite, Timestamp: time.Now()}
		}
	}
	for path := range w.lastModTimes {
		if _, stillPresent := current[path]; !stillPresent {
			w.eventChan <- FileEvent{Path: path, Op: FileOpRemove, Timestamp: time.Now()}
		}
	}
	w.lastModTimes = current
}

// dispatchLoop fans out events to callbacks after a debounce window,
// running on its own goroutine so slow callbacks never block polling.
func (w *FileWatcher) dispatchLoop(ctx context.Context) {
	pendingEvents := make(map[string]FileEvent)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event := <-w.eventChan:
			pendingEvents[event.Path] = event

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounceDelay, func() {
				w.mu.RLock()
				callbacks := make([]func(FileEvent), len(w.callbacks))
				copy(callbacks, w.callbacks)
				w.mu.RUnlock()

				for path, evt := range pendingEvents {
					w.logger.Debug("dispatching file event", zap.String("path", path), zap.String("op", evt.Op.String()))
					for _, cb := range callbacks {
						cb(evt)
					}
				}
				pendingEvents = make(map[string]FileEvent)
			})
		}
	}
}
