package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newGraph(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "journals"), 0o755))
	return root
}

func collect(t *testing.T, s *Scanner, opts ScanOptions) []ScanResult {
	t.Helper()
	var out []ScanResult
	for r := range s.Scan(context.Background(), opts) {
		out = append(out, r)
	}
	return out
}

func TestScan_FindsMarkdownUnderPagesAndJournals(t *testing.T) {
	root := newGraph(t)
	writeFile(t, filepath.Join(root, "pages", "alpha.md"), "- a")
	writeFile(t, filepath.Join(root, "journals", "2024_01_01.md"), "- b")
	writeFile(t, filepath.Join(root, "pages", "notes.txt"), "ignored")

	results := collect(t, New(), ScanOptions{RootDir: root})

	var paths []string
	for _, r := range results {
		require.NoError(t, r.Error)
		paths = append(paths, r.File.Path)
	}
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, filepath.Join("pages", "alpha.md"))
	assert.Contains(t, paths, filepath.Join("journals", "2024_01_01.md"))
}

func TestScan_SkipsHiddenAndLogseqDirs(t *testing.T) {
	root := newGraph(t)
	writeFile(t, filepath.Join(root, "pages", ".hidden", "x.md"), "- x")
	writeFile(t, filepath.Join(root, "pages", "logseq", "y.md"), "- y")
	writeFile(t, filepath.Join(root, "pages", "visible.md"), "- z")

	results := collect(t, New(), ScanOptions{RootDir: root})
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join("pages", "visible.md"), results[0].File.Path)
}

func TestScan_MissingSubdirIsInvalidValue(t *testing.T) {
	root := t.TempDir()
	results := collect(t, New(), ScanOptions{RootDir: root})
	require.Len(t, results, 1)
	require.Error(t, results[0].Error)
}

func TestScan_NonexistentRootIsInvalidValue(t *testing.T) {
	results := collect(t, New(), ScanOptions{RootDir: filepath.Join(t.TempDir(), "does-not-exist")})
	require.Len(t, results, 1)
	require.Error(t, results[0].Error)
}

func TestScan_UnreadableSubdirSurfacesWalkError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root ignores directory permissions")
	}

	root := newGraph(t)
	writeFile(t, filepath.Join(root, "pages", "visible.md"), "- z")
	blocked := filepath.Join(root, "pages", "blocked")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	writeFile(t, filepath.Join(blocked, "secret.md"), "- s")
	require.NoError(t, os.Chmod(blocked, 0o000))
	defer os.Chmod(blocked, 0o755)

	results := collect(t, New(), ScanOptions{RootDir: root})

	var files []string
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, r.Error)
			continue
		}
		files = append(files, r.File.Path)
	}

	assert.Contains(t, files, filepath.Join("pages", "visible.md"))
	require.NotEmpty(t, errs, "permission error on blocked subdirectory should be surfaced, not silently discarded")
}
