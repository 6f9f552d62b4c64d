package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/weswalla/logjam/internal/errs"
	"github.com/weswalla/logjam/internal/logging"
)

// Scanner discovers markdown pages beneath a graph root.
type Scanner struct {
	log *slog.Logger
}

// New creates a Scanner.
func New() *Scanner {
	return &Scanner{log: logging.Component(slog.Default(), "scanner")}
}

// Scan validates the graph root and streams every *.md file found beneath
// its pages/ and journals/ subdirectories. The returned channel is closed
// once the scan completes, or immediately after a single error result if
// root validation fails.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) <-chan ScanResult {
	results := make(chan ScanResult, 64)

	go func() {
		defer close(results)

		absRoot, err := s.validateRoot(opts.RootDir)
		if err != nil {
			s.log.Warn("invalid graph root", slog.String("root", opts.RootDir), slog.String("error", err.Error()))
			send(ctx, results, ScanResult{Error: err})
			return
		}

		maxFileSize := opts.MaxFileSize
		if maxFileSize <= 0 {
			maxFileSize = DefaultMaxFileSize
		}

		s.log.Debug("scan started", slog.String("root", absRoot))
		for _, sub := range pageSubdirs {
			s.scanSubdir(ctx, absRoot, filepath.Join(absRoot, sub), maxFileSize, results)
		}
		s.log.Debug("scan finished", slog.String("root", absRoot))
	}()

	return results
}

// validateRoot checks that root exists, is a directory, and contains both
// pages/ and journals/ as directories. Failures are InvalidValue errors.
func (s *Scanner) validateRoot(root string) (string, error) {
	if root == "" {
		return "", errs.Invalidf("graph root must not be empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", errs.Invalidf("cannot resolve graph root %q: %v", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return "", errs.Invalidf("graph root %q does not exist", absRoot)
	}
	if !info.IsDir() {
		return "", errs.Invalidf("graph root %q is not a directory", absRoot)
	}

	for _, sub := range pageSubdirs {
		subPath := filepath.Join(absRoot, sub)
		subInfo, err := os.Stat(subPath)
		if err != nil || !subInfo.IsDir() {
			return "", errs.Invalidf("graph root %q is missing required subdirectory %q", absRoot, sub)
		}
	}

	return absRoot, nil
}

// scanSubdir walks one of the graph root's pages/journals subtrees,
// skipping hidden directories and any directory named "logseq".
func (s *Scanner) scanSubdir(ctx context.Context, absRoot, subRoot string, maxFileSize int64, results chan<- ScanResult) {
	err := filepath.WalkDir(subRoot, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			s.log.Warn("walk error", slog.String("path", path), slog.String("error", walkErr.Error()))
			return send(ctx, results, ScanResult{Error: walkErr})
		}

		if d.IsDir() {
			name := d.Name()
			if path != subRoot && (strings.HasPrefix(name, ".") || name == "logseq") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(d.Name()) != ".md" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}

		fileInfo := &FileInfo{
			Path:    relPath,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		return send(ctx, results, ScanResult{File: fileInfo})
	})

	if err != nil && err != context.Canceled {
		send(ctx, results, ScanResult{Error: err})
	}
}

// send delivers a result unless the context is cancelled first, returning
// ctx.Err() in that case so WalkDir unwinds.
func send(ctx context.Context, results chan<- ScanResult, r ScanResult) error {
	select {
	case results <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
