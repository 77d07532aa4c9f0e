package index

import (
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/archive"
	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

// Counts summarizes one indexed archive
type Counts struct {
	Media   int
	Meta    int
	Ignored int
}

// Indexer registers archive entries in the record store
type Indexer struct {
	db     *db.DB
	cfg    config.Matching
	logger *zap.Logger
}

// New creates a new indexer instance
func New(store *db.DB, cfg config.Matching, logger *zap.Logger) *Indexer {
	return &Indexer{db: store, cfg: cfg, logger: logger}
}

// Kind is what an archive entry is classified as
type Kind int

const (
	KindIgnored Kind = iota
	KindMedia
	KindMeta
)

// Classify decides how an entry path is registered. Rendering sidecars
// (.html) and JSON files under non-media categories are ignored.
func Classify(entryPath string, noMediaMarkers []string) Kind {
	switch strings.ToLower(path.Ext(entryPath)) {
	case ".json":
		for _, marker := range noMediaMarkers {
			if strings.Contains(entryPath, marker) {
				return KindIgnored
			}
		}
		return KindMeta
	case ".html":
		return KindIgnored
	default:
		return KindMedia
	}
}

// Index upserts every media and sidecar entry of a. Re-indexing the same
// archive re-establishes the same keys.
func (ix *Indexer) Index(a archive.Reader) (Counts, error) {
	var counts Counts
	var media []models.MediaRecord
	var meta []models.MetaRecord

	for _, e := range a.Entries() {
		switch Classify(e.Path, ix.cfg.NoMediaMarkers) {
		case KindMeta:
			meta = append(meta, models.MetaRecord{Path: e.Path, Archive: a.Name()})
		case KindMedia:
			media = append(media, models.MediaRecord{
				Path:     e.Path,
				Archive:  a.Name(),
				Filename: path.Base(e.Path),
				Size:     e.Size,
				Ext:      strings.ToUpper(strings.TrimPrefix(path.Ext(e.Path), ".")),
			})
		default:
			counts.Ignored++
		}
	}

	if err := ix.db.UpsertMediaBatch(media); err != nil {
		return counts, fmt.Errorf("failed to index media of %s: %w", a.Name(), err)
	}
	if err := ix.db.UpsertMetaStubs(meta); err != nil {
		return counts, fmt.Errorf("failed to index sidecars of %s: %w", a.Name(), err)
	}
	counts.Media = len(media)
	counts.Meta = len(meta)

	ix.logger.Info("indexed archive",
		zap.String("archive", a.Name()),
		zap.Int("media", counts.Media),
		zap.Int("sidecars", counts.Meta),
		zap.Int("ignored", counts.Ignored),
	)
	return counts, nil
}
