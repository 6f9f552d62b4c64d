// Package scanner discovers markdown pages within a logseq-style graph
// root, streaming them as they are found.
package scanner

import "time"

// FileInfo describes a single discovered markdown page.
type FileInfo struct {
	Path    string    // path relative to the graph root
	AbsPath string    // absolute path
	Size    int64     // file size in bytes
	ModTime time.Time // last modification time, used to drive incremental sync
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// RootDir is the graph root: the directory containing pages/ and
	// journals/ subdirectories.
	RootDir string

	// MaxFileSize is the maximum file size to report in bytes (0 =
	// DefaultMaxFileSize).
	MaxFileSize int64
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// DefaultMaxFileSize bounds how large a page file the scanner will report;
// outsized files are almost certainly not genuine outliner pages.
const DefaultMaxFileSize = 10 * 1024 * 1024

// pageSubdirs are the only top-level directories the scanner recurses
// into, per spec §4.3.
var pageSubdirs = []string{"pages", "journals"}
