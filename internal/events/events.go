// Package events defines the progress event variants emitted by the
// import and sync services (spec §6 "Event streams").
package events

// ImportProgress reports a single step of an import run's progress.
type ImportProgress struct {
	Processed   int
	Total       int
	CurrentFile string
	Percentage  float64
}

// ImportEvent is the sum type of import-service progress events. Kind
// names the variant, and only that variant's fields are set; the others
// keep their zero values.
type ImportEvent struct {
	Kind ImportEventKind

	// Started
	TotalFiles int

	// FileProcessed
	Path     string
	Progress ImportProgress

	// Completed
	PagesImported int
	DurationMs    int64

	// Failed
	Err            string
	FilesProcessed int
}

// ImportEventKind enumerates ImportEvent variants.
type ImportEventKind int

const (
	ImportStarted ImportEventKind = iota
	ImportFileProcessed
	ImportCompleted
	ImportFailed
)

// SyncEventKind enumerates SyncEvent variants.
type SyncEventKind int

const (
	SyncStarted SyncEventKind = iota
	SyncFileCreated
	SyncFileUpdated
	SyncFileDeleted
	SyncCompleted
	SyncError
)

// SyncEvent is the sum type of sync-service events.
type SyncEvent struct {
	Kind SyncEventKind

	// FileCreated, FileUpdated, FileDeleted, Error
	Path string

	// Error
	Err string

	// SyncCompleted
	Created int
	Updated int
	Deleted int
}
