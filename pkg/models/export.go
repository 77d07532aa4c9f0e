package models

// Export notes recorded on media records
const (
	NoteNewFile         = "New file"
	NoteSkippedSame     = "Skipped, file with same name & size exists"
	NoteRenamed         = "Saved to new filename to avoid overwrite"
	NoteAlreadyExported = "Skipped, already exported"
	NoteFailed          = "Export failed"
)

// Embedding outcomes
const (
	ExifUpdated     = "Metadata updated"
	ExifPresent     = "Metadata already present"
	ExifUnsupported = "No embeddable metadata"
)

// ExportTarget distinguishes the primary copy from the implied library copy
type ExportTarget int

const (
	TargetPrimary ExportTarget = iota
	TargetLibrary
)

// ExportResult is the outcome of materializing one record at one destination
type ExportResult struct {
	Path    string // destination written, empty when skipped
	Note    string
	Exif    string
	Written bool
	Size    int64
}
