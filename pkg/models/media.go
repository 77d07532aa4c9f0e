package models

// Disposition is the dedup decision for an album-destined media file.
type Disposition int

const (
	// DispositionUnset means the record was never considered by the deduplicator
	DispositionUnset Disposition = iota
	// DispositionAlbumOnly means a library copy of the same capture already exists
	DispositionAlbumOnly
	// DispositionAlsoLibrary means the file must also be copied into the library
	DispositionAlsoLibrary
)

// MediaRecord represents one media entry found in an archive
type MediaRecord struct {
	Path     string // in-archive path, primary key
	Archive  string
	Filename string
	Size     int64
	Ext      string
	Edited   bool

	MetaPath    string
	Folder      string
	Disposition Disposition
	Source      string // library record duplicated by this album record

	Exported    string
	Note        string
	Exif        string
	LibExported string
	LibNote     string
	LibExif     string
}

// Matched reports whether the record has been paired with a sidecar
func (m MediaRecord) Matched() bool {
	return m.MetaPath != ""
}

// Match is a media record joined with its sidecar
type Match struct {
	Media MediaRecord
	Meta  MetaRecord
}
