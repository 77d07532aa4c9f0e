package models

// Stats represents store-wide counts
type Stats struct {
	MediaFiles    int64
	MediaSize     int64
	MetaFiles     int64
	ParseFailures int64
	Matched       int64
	MatchedSize   int64
	Unmatched     int64
	Edited        int64
	Exported      int64
	LibraryCopies int64
	Archives      int64
}

// PushRecord is one exported file queued for upload
type PushRecord struct {
	LocalPath   string
	ObjectKey   string
	MediaPath   string
	Size        int64
	Status      string
	TakenAt     int64
	Description string
}

// Push statuses
const (
	PushPending  = "pending"
	PushUploaded = "uploaded"
	PushFailed   = "failed"
	PushSkipped  = "skipped"
)
