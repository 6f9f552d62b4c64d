// Package importer implements the bounded-concurrency directory import:
// scan, parse every file (bounded in-flight), save each parsed page
// serially, and report progress through a callback.
package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weswalla/logjam/internal/domain"
	"github.com/weswalla/logjam/internal/errs"
	"github.com/weswalla/logjam/internal/events"
	"github.com/weswalla/logjam/internal/logging"
	"github.com/weswalla/logjam/internal/markdown"
	"github.com/weswalla/logjam/internal/repository"
	"github.com/weswalla/logjam/internal/scanner"
)

var log = logging.Component(slog.Default(), "importer")

// DefaultMaxConcurrentFiles bounds how many files are parsed at once.
const DefaultMaxConcurrentFiles = 4

// FileError records a single file's failure during import.
type FileError struct {
	Path    string
	Message string
}

// Summary is returned from Import regardless of outcome.
type Summary struct {
	PagesImported int
	FilesFailed   []FileError
	DurationMs    int64
}

// Config tunes an Importer.
type Config struct {
	MaxConcurrentFiles int
}

// WithDefaults fills zero-valued fields with spec defaults.
func (c Config) WithDefaults() Config {
	if c.MaxConcurrentFiles <= 0 {
		c.MaxConcurrentFiles = DefaultMaxConcurrentFiles
	}
	return c
}

// Importer runs the directory import pipeline described in spec §4.6.
type Importer struct {
	scanner *scanner.Scanner
	repo    repository.Repository
	config  Config
}

// New constructs an Importer.
func New(repo repository.Repository, config Config) *Importer {
	return &Importer{
		scanner: scanner.New(),
		repo:    repo,
		config:  config.WithDefaults(),
	}
}

// parsedFile is the (path, Result<Page>) pair the spec describes flowing
// over the bounded channel, drained serially by the orchestrator.
type parsedFile struct {
	path string
	page *domain.Page
	err  error
}

// Import scans root, parses every discovered file with bounded
// concurrency, and saves each resulting page serially. onEvent may be
// nil; when set, it receives every progress event in order.
func (imp *Importer) Import(ctx context.Context, root string, onEvent func(events.ImportEvent)) (Summary, error) {
	start := time.Now()
	emit := func(e events.ImportEvent) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	files, err := imp.listFiles(ctx, root)
	if err != nil {
		return Summary{}, err
	}

	emit(events.ImportEvent{Kind: events.ImportStarted, TotalFiles: len(files)})

	results := make(chan parsedFile, len(files))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, imp.config.MaxConcurrentFiles)

	for _, f := range files {
		f := f
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			page, parseErr := imp.parseFile(f.AbsPath, f.Path)

			select {
			case results <- parsedFile{path: f.Path, page: page, err: parseErr}:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	var summary Summary
	processed := 0
	for r := range results {
		processed++

		if r.err == nil {
			if saveErr := imp.repo.Save(ctx, r.page); saveErr != nil {
				summary.FilesFailed = append(summary.FilesFailed, FileError{Path: r.path, Message: saveErr.Error()})
			} else {
				summary.PagesImported++
			}
		} else {
			summary.FilesFailed = append(summary.FilesFailed, FileError{Path: r.path, Message: r.err.Error()})
		}

		pct := 0.0
		if len(files) > 0 {
			pct = float64(processed) / float64(len(files)) * 100
		}
		emit(events.ImportEvent{
			Kind: events.ImportFileProcessed,
			Path: r.path,
			Progress: events.ImportProgress{
				Processed:   processed,
				Total:       len(files),
				CurrentFile: r.path,
				Percentage:  pct,
			},
		})
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	log.Debug("import finished",
		slog.String("root", root),
		slog.Int("pages_imported", summary.PagesImported),
		slog.Int("files_failed", len(summary.FilesFailed)),
		slog.Int64("duration_ms", summary.DurationMs))

	if len(summary.FilesFailed) == 0 {
		emit(events.ImportEvent{Kind: events.ImportCompleted, PagesImported: summary.PagesImported, DurationMs: summary.DurationMs})
	} else {
		emit(events.ImportEvent{Kind: events.ImportFailed, Err: "one or more files failed to import", FilesProcessed: processed})
	}

	return summary, nil
}

func (imp *Importer) parseFile(absPath, relPath string) (*domain.Page, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errs.Wrap(errs.Parse, "read file "+relPath, err)
	}
	return markdown.Parse(TitleFromPath(relPath), string(content))
}

func (imp *Importer) listFiles(ctx context.Context, root string) ([]*scanner.FileInfo, error) {
	var files []*scanner.FileInfo
	for res := range imp.scanner.Scan(ctx, scanner.ScanOptions{RootDir: root}) {
		if res.Error != nil {
			log.Warn("scan error during import", slog.String("error", res.Error.Error()))
			continue
		}
		if res.File != nil {
			files = append(files, res.File)
		}
	}
	return files, nil
}

// TitleFromPath derives a page title from a relative path by dropping
// the .md extension and any directory components, as the sync service
// and import pipeline both do (spec §4.7's fileStem).
func TitleFromPath(relPath string) string {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
