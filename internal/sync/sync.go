// Package sync implements the two reconciliation modes of spec §4.7:
// one-shot directory reconciliation (syncOnce) against an in-memory
// registry, and live watch-event routing (startWatching).
package sync

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/weswalla/logjam/internal/errs"
	"github.com/weswalla/logjam/internal/events"
	"github.com/weswalla/logjam/internal/importer"
	"github.com/weswalla/logjam/internal/logging"
	"github.com/weswalla/logjam/internal/markdown"
	"github.com/weswalla/logjam/internal/repository"
	"github.com/weswalla/logjam/internal/scanner"
	"github.com/weswalla/logjam/internal/watcher"
)

var log = logging.Component(slog.Default(), "sync")

// registryEntry tracks what the service last saw for a given path.
type registryEntry struct {
	title        string
	lastModified time.Time
}

// Summary is returned from SyncOnce.
type Summary struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Errors    []FileError
}

// FileError records a single path's sync failure.
type FileError struct {
	Path    string
	Message string
}

// Service reconciles a directory of markdown pages against a repository,
// either once (SyncOnce) or continuously from a live watcher
// (StartWatching). The mutex guards the path registry only: it is held
// around registry reads and writes and never across file I/O, parsing or
// repository calls, which are made without it.
type Service struct {
	scanner *scanner.Scanner
	repo    repository.Repository

	mu       sync.Mutex
	registry map[string]registryEntry
}

// New constructs a Service with an empty registry.
func New(repo repository.Repository) *Service {
	return &Service{
		scanner:  scanner.New(),
		repo:     repo,
		registry: make(map[string]registryEntry),
	}
}

// SyncOnce performs one-shot reconciliation of root against the current
// registry, per spec §4.7.
func (s *Service) SyncOnce(ctx context.Context, root string, onEvent func(events.SyncEvent)) (Summary, error) {
	emit := func(e events.SyncEvent) {
		if onEvent != nil {
			onEvent(e)
		}
	}
	emit(events.SyncEvent{Kind: events.SyncStarted})

	current, err := s.scanCurrent(ctx, root)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	seen := make(map[string]struct{}, len(current))

	for _, f := range current {
		seen[f.Path] = struct{}{}

		s.mu.Lock()
		prior, known := s.registry[f.Path]
		s.mu.Unlock()

		title := importer.TitleFromPath(f.Path)

		if !known {
			if err := s.syncFile(ctx, root, f, title); err != nil {
				summary.Errors = append(summary.Errors, FileError{Path: f.Path, Message: err.Error()})
				emit(events.SyncEvent{Kind: events.SyncError, Path: f.Path, Err: err.Error()})
				continue
			}
			summary.Created++
			emit(events.SyncEvent{Kind: events.SyncFileCreated, Path: f.Path})
			continue
		}

		if f.ModTime.After(prior.lastModified) {
			if err := s.syncFile(ctx, root, f, title); err != nil {
				summary.Errors = append(summary.Errors, FileError{Path: f.Path, Message: err.Error()})
				emit(events.SyncEvent{Kind: events.SyncError, Path: f.Path, Err: err.Error()})
				continue
			}
			summary.Updated++
			emit(events.SyncEvent{Kind: events.SyncFileUpdated, Path: f.Path})
			continue
		}

		summary.Unchanged++
	}

	s.mu.Lock()
	var stale []string
	for path := range s.registry {
		if _, ok := seen[path]; !ok {
			stale = append(stale, path)
		}
	}
	s.mu.Unlock()

	for _, path := range stale {
		s.mu.Lock()
		entry := s.registry[path]
		delete(s.registry, path)
		s.mu.Unlock()

		page, ok, err := s.repo.FindByTitle(ctx, entry.title)
		if err == nil && ok {
			_, _ = s.repo.Delete(ctx, page.ID())
		}
		summary.Deleted++
		emit(events.SyncEvent{Kind: events.SyncFileDeleted, Path: path})
	}

	emit(events.SyncEvent{Kind: events.SyncCompleted, Created: summary.Created, Updated: summary.Updated, Deleted: summary.Deleted})
	return summary, nil
}

// syncFile parses and saves the page for f, then records it in the
// registry. A page already stored under the same title is looked up
// before the save and deleted after it, so a re-synced file replaces its
// earlier page instead of adding a second one.
func (s *Service) syncFile(ctx context.Context, root string, f *scanner.FileInfo, title string) error {
	content, err := os.ReadFile(filepath.Join(root, f.Path))
	if err != nil {
		return errs.Wrap(errs.Parse, "read file "+f.Path, err)
	}

	page, err := markdown.Parse(title, string(content))
	if err != nil {
		return err
	}

	existing, found, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		return err
	}

	if err := s.repo.Save(ctx, page); err != nil {
		return err
	}

	if found && existing.ID() != page.ID() {
		if _, err := s.repo.Delete(ctx, existing.ID()); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.registry[f.Path] = registryEntry{title: title, lastModified: f.ModTime}
	s.mu.Unlock()
	return nil
}

func (s *Service) scanCurrent(ctx context.Context, root string) ([]*scanner.FileInfo, error) {
	var files []*scanner.FileInfo
	for res := range s.scanner.Scan(ctx, scanner.ScanOptions{RootDir: root}) {
		if res.Error != nil {
			return nil, res.Error
		}
		if res.File != nil {
			files = append(files, res.File)
		}
	}
	return files, nil
}

// StartWatching routes watcher event batches to repository saves/deletes
// until ctx is cancelled or the watcher's event channel closes. batches
// come pre-debounced and pre-filtered by watcher.Watcher. onEvent may be
// nil.
func (s *Service) StartWatching(ctx context.Context, root string, w watcher.Watcher, onEvent func(events.SyncEvent)) error {
	emit := func(e events.SyncEvent) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	// Start runs until the watcher stops, so it gets its own goroutine and
	// its result is picked up in the loop below.
	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx, root) }()

	eventsCh := w.Events()
	errorsCh := w.Errors()

	for {
		select {
		case <-ctx.Done():
			return w.Stop()
		case err := <-startErr:
			if err != nil && ctx.Err() == nil {
				return errs.Wrap(errs.Watcher, "start watcher", err)
			}
			startErr = nil // a nil channel is never selected again
		case batch, ok := <-eventsCh:
			if !ok {
				return nil
			}
			s.handleBatch(ctx, root, batch, emit)
		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil // stop selecting on a closed channel
				continue
			}
			log.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (s *Service) handleBatch(ctx context.Context, root string, batch []watcher.FileEvent, emit func(events.SyncEvent)) {
	var created, updated, deleted int

	for _, ev := range batch {
		switch ev.Operation {
		case watcher.OpCreate, watcher.OpModify:
			title := importer.TitleFromPath(ev.Path)
			content, err := os.ReadFile(filepath.Join(root, ev.Path))
			if err != nil {
				emit(events.SyncEvent{Kind: events.SyncError, Path: ev.Path, Err: err.Error()})
				continue
			}
			page, err := markdown.Parse(title, string(content))
			if err != nil {
				emit(events.SyncEvent{Kind: events.SyncError, Path: ev.Path, Err: err.Error()})
				continue
			}
			if err := s.repo.Save(ctx, page); err != nil {
				emit(events.SyncEvent{Kind: events.SyncError, Path: ev.Path, Err: err.Error()})
				continue
			}

			s.mu.Lock()
			_, existed := s.registry[ev.Path]
			s.registry[ev.Path] = registryEntry{title: title, lastModified: ev.Timestamp}
			s.mu.Unlock()

			if ev.Operation == watcher.OpCreate && !existed {
				created++
				emit(events.SyncEvent{Kind: events.SyncFileCreated, Path: ev.Path})
			} else {
				updated++
				emit(events.SyncEvent{Kind: events.SyncFileUpdated, Path: ev.Path})
			}

		case watcher.OpDelete:
			log.Info("file deleted", slog.String("path", ev.Path))

			s.mu.Lock()
			entry, known := s.registry[ev.Path]
			delete(s.registry, ev.Path)
			s.mu.Unlock()

			if known {
				if page, ok, err := s.repo.FindByTitle(ctx, entry.title); err == nil && ok {
					_, _ = s.repo.Delete(ctx, page.ID())
				}
			}
			deleted++
			emit(events.SyncEvent{Kind: events.SyncFileDeleted, Path: ev.Path})
		}
	}

	emit(events.SyncEvent{Kind: events.SyncCompleted, Created: created, Updated: updated, Deleted: deleted})
}
