package embed

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/pkg/models"
)

// ErrUnsupported is returned by a Backend when a file format rejects
// metadata embedding
var ErrUnsupported = errors.New("file carries no embeddable metadata")

const (
	TagDateTimeOriginal = "DateTimeOriginal"
	TagImageDescription = "ImageDescription"

	// ExifTimeLayout is the EXIF date-time format
	ExifTimeLayout = "2006:01:02 15:04:05"
)

// Fields maps metadata tag names to values
type Fields map[string]string

// Backend loads and commits embeddable metadata of a file
type Backend interface {
	Read(path string) (Fields, error)
	Write(path string, set Fields) error
}

// Embedder writes recovered capture time and description into files
type Embedder struct {
	backend Backend
	loc     *time.Location
	logger  *zap.Logger
}

// New returns an Embedder writing EXIF times in the local time zone
func New(backend Backend, logger *zap.Logger) *Embedder {
	return &Embedder{backend: backend, loc: time.Local, logger: logger}
}

// WithLocation sets the zone EXIF times are written in
func (e *Embedder) WithLocation(loc *time.Location) *Embedder {
	e.loc = loc
	return e
}

// Fields returns the tags that must be written to a file currently
// holding existing. An empty result means nothing is missing.
func (e *Embedder) Fields(existing Fields, takenAt time.Time, description string) Fields {
	set := Fields{}
	if existing[TagDateTimeOriginal] == "" {
		set[TagDateTimeOriginal] = takenAt.In(e.loc).Format(ExifTimeLayout)
	}
	if description != "" {
		set[TagImageDescription] = description
	}
	return set
}

// Embed returns the outcome recorded on the media record. Failures are
// never returned, they become models.ExifUnsupported.
func (e *Embedder) Embed(path string, takenAt time.Time, description string) string {
	existing, err := e.backend.Read(path)
	if err != nil {
		e.logger.Warn("cannot read embedded metadata", zap.String("path", path), zap.Error(err))
		return models.ExifUnsupported
	}

	set := e.Fields(existing, takenAt, description)
	if len(set) == 0 {
		return models.ExifPresent
	}
	if err := e.backend.Write(path, set); err != nil {
		e.logger.Warn("cannot write embedded metadata", zap.String("path", path), zap.Error(err))
		return models.ExifUnsupported
	}
	return models.ExifUpdated
}
