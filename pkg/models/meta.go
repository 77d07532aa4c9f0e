package models

import "time"

// MetaType tags a sidecar as album or media metadata.
// An empty type means the sidecar is still a bare stub.
type MetaType string

const (
	MetaTypeAlbum MetaType = "album"
	MetaTypeMedia MetaType = "media"
)

// MetaRecord represents one JSON sidecar
type MetaRecord struct {
	Path    string
	Archive string
	Type    MetaType

	Title       string
	Description string

	TakenAt        int64 // epoch seconds
	TakenFormatted string
	Year           int
	GeoLat         float64
	GeoLong        float64
	GeoAlt         float64
	ImageViews     int64
	Trashed        bool

	ParseError string
}

// TakenTime returns the capture timestamp as a time.Time
func (m MetaRecord) TakenTime() time.Time {
	return time.Unix(m.TakenAt, 0)
}

// AlbumFields holds what an album sidecar contributes
type AlbumFields struct {
	Title       string
	Description string
}

// MediaFields holds what a media sidecar contributes
type MediaFields struct {
	Title          string
	Description    string
	TakenAt        int64
	TakenFormatted string
	Year           int
	GeoLat         float64
	GeoLong        float64
	GeoAlt         float64
	ImageViews     int64
	Trashed        bool
}
