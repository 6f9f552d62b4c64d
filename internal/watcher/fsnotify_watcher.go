package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/weswalla/logjam/internal/errs"
)

// FsWatcher is the fsnotify-backed Watcher implementation. It recursively
// watches a graph root and emits debounced batches of events for .md files
// under pages/ or journals/.
type FsWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	events    chan []FileEvent
	errorsCh  chan error
	stopCh    chan struct{}
	rootPath  string
	opts      Options
	mu        sync.RWMutex
	stopped   bool
}

var _ Watcher = (*FsWatcher)(nil)

// New creates an FsWatcher with the given options.
func New(opts Options) (*FsWatcher, error) {
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap(errs.Watcher, "failed to create fsnotify watcher", err)
	}

	return &FsWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errorsCh:  make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}, nil
}

// Start begins watching root recursively.
func (w *FsWatcher) Start(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errs.Wrap(errs.Watcher, "resolve watch root", err)
	}
	w.rootPath = absRoot

	if err := w.addRecursive(absRoot); err != nil {
		return errs.Wrap(errs.Watcher, "add directories to watcher", err)
	}

	go w.forwardDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(errs.Wrap(errs.Watcher, "fsnotify error", err))
		}
	}
}

// addRecursive adds root and every descendant directory to the fsnotify
// watcher, skipping hidden directories and any directory named "logseq".
func (w *FsWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "logseq") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// handleEvent converts and filters a raw fsnotify event, forwarding
// surviving events to the debouncer.
func (w *FsWatcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.rootPath, event.Name)
	if err != nil {
		relPath = event.Name
	}

	if !w.isTrackedMarkdownPath(relPath) {
		if event.Op&fsnotify.Create != 0 {
			// A newly created directory inside pages/ or journals/ must
			// itself be watched so files added beneath it are seen.
			_ = w.fsw.Add(event.Name)
		}
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpDelete
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      relPath,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// isTrackedMarkdownPath reports whether relPath is a .md file whose
// ancestry contains "pages" or "journals".
func (w *FsWatcher) isTrackedMarkdownPath(relPath string) bool {
	if filepath.Ext(relPath) != ".md" {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(relPath), string(filepath.Separator)) {
		if part == "pages" || part == "journals" {
			return true
		}
	}
	return false
}

func (w *FsWatcher) forwardDebounced(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			w.emitEvents(events)
		}
	}
}

func (w *FsWatcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case w.events <- events:
	default:
	}
}

func (w *FsWatcher) emitError(err error) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case w.errorsCh <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (w *FsWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)

	w.debouncer.Stop()
	_ = w.fsw.Close()

	close(w.events)
	close(w.errorsCh)
	return nil
}

// Events returns the channel of batched, filtered file events.
func (w *FsWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *FsWatcher) Errors() <-chan error {
	return w.errorsCh
}
