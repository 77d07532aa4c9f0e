package dedup

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

// captureKey identifies a capture by name and timestamp. Size is not part
// of it: album and library copies of one photo share both fields.
type captureKey struct {
	filename string
	takenAt  int64
}

// Library indexes library-destined records by capture
type Library map[captureKey]string

// NewLibrary builds the index. The first record seen for a key wins.
func NewLibrary(matches []models.Match) Library {
	lib := make(Library, len(matches))
	for _, m := range matches {
		k := captureKey{filename: m.Media.Filename, takenAt: m.Meta.TakenAt}
		if _, ok := lib[k]; !ok {
			lib[k] = m.Media.Path
		}
	}
	return lib
}

// Disposition decides whether an album record needs its own library copy.
// source is the library record it duplicates, if any.
func (lib Library) Disposition(m models.Match) (d models.Disposition, source string) {
	if src, ok := lib[captureKey{filename: m.Media.Filename, takenAt: m.Meta.TakenAt}]; ok {
		return models.DispositionAlbumOnly, src
	}
	return models.DispositionAlsoLibrary, ""
}

// Summary counts dispositions
type Summary struct {
	AlbumOnly    int
	AlsoLibrary  int
	LibraryFiles int
}

// Deduplicator marks album records already present in the library
type Deduplicator struct {
	db     *db.DB
	cfg    config.Folders
	logger *zap.Logger
}

// New creates a new deduplicator instance
func New(store *db.DB, cfg config.Folders, logger *zap.Logger) *Deduplicator {
	return &Deduplicator{db: store, cfg: cfg, logger: logger}
}

// Dedup must run after every record is classified so the library set is
// complete before any album record is decided.
func (d *Deduplicator) Dedup() (Summary, error) {
	var sum Summary
	library, err := d.db.Matches(db.MatchFilter{FolderPrefix: d.cfg.Library + "/"})
	if err != nil {
		return sum, fmt.Errorf("failed to list library records: %w", err)
	}
	lib := NewLibrary(library)
	sum.LibraryFiles = len(library)

	albums, err := d.db.Matches(db.MatchFilter{FolderPrefix: d.cfg.Albums + "/"})
	if err != nil {
		return sum, fmt.Errorf("failed to list album records: %w", err)
	}

	for _, m := range albums {
		disp, src := lib.Disposition(m)
		if err := d.db.SetDisposition(m.Media.Path, disp, src); err != nil {
			return sum, err
		}
		if disp == models.DispositionAlbumOnly {
			sum.AlbumOnly++
			d.logger.Debug("album file already in library",
				zap.String("path", m.Media.Path),
				zap.String("source", src),
			)
		} else {
			sum.AlsoLibrary++
		}
	}

	d.logger.Info("deduplicated album media",
		zap.Int("album_only", sum.AlbumOnly),
		zap.Int("also_library", sum.AlsoLibrary),
		zap.Int("library", sum.LibraryFiles),
	)
	return sum, nil
}
