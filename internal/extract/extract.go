package extract

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/archive"
	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

// TakenFormat is the layout of the formatted capture time (UTC)
const TakenFormat = "2006-01-02 15:04:05"

var (
	errNoTimestamp  = errors.New("missing photoTakenTime.timestamp")
	errNoAlbumTitle = errors.New("missing album title")
)

// Result is the outcome of parsing one sidecar: either Album or Media is
// set, or Err explains why the sidecar was left unpopulated.
type Result struct {
	Path  string
	Album *models.AlbumFields
	Media *models.MediaFields
	Err   error
}

// Failed reports whether the sidecar could not be extracted
func (r Result) Failed() bool {
	return r.Err != nil
}

// IsAlbumSidecar reports whether a sidecar path follows the album metadata
// naming convention (metadata.json, metadata(1).json, ...), as opposed to
// a media sidecar such as IMG_1.jpg.json.
func IsAlbumSidecar(metaPath, marker string) bool {
	name := strings.TrimSuffix(path.Base(metaPath), path.Ext(metaPath))
	return path.Ext(name) == "" && strings.Contains(name, marker)
}

// Parse decodes one sidecar body
func Parse(metaPath string, body []byte, albumMarker string) Result {
	res := Result{Path: metaPath}

	var sc sidecar
	if err := json.Unmarshal(body, &sc); err != nil {
		res.Err = fmt.Errorf("invalid JSON: %w", err)
		return res
	}

	if IsAlbumSidecar(metaPath, albumMarker) {
		album, err := albumFields(sc)
		if err != nil {
			res.Err = err
			return res
		}
		res.Album = album
		return res
	}

	if sc.PhotoTakenTime == nil || !sc.PhotoTakenTime.Timestamp.Set {
		res.Err = errNoTimestamp
		return res
	}
	ts := sc.PhotoTakenTime.Timestamp.Value
	taken := time.Unix(ts, 0).UTC()

	media := &models.MediaFields{
		Description:    sc.Description,
		TakenAt:        ts,
		TakenFormatted: taken.Format(TakenFormat),
		Year:           taken.Year(),
		ImageViews:     sc.ImageViews.Value,
		Trashed:        sc.Trashed,
	}
	if sc.Title != nil {
		media.Title = *sc.Title
	}
	geo := sc.GeoDataExif
	if geo == nil {
		geo = sc.GeoData
	}
	if geo != nil {
		media.GeoLat, media.GeoLong, media.GeoAlt = geo.Latitude, geo.Longitude, geo.Altitude
	}
	res.Media = media
	return res
}

func albumFields(sc sidecar) (*models.AlbumFields, error) {
	if sc.AlbumData != nil && sc.AlbumData.Title != nil {
		return &models.AlbumFields{Title: *sc.AlbumData.Title, Description: sc.AlbumData.Description}, nil
	}
	// newer exports put the album fields at the top level
	if sc.Title != nil {
		return &models.AlbumFields{Title: *sc.Title, Description: sc.Description}, nil
	}
	return nil, errNoAlbumTitle
}

// Summary counts the outcomes of one archive's sidecars
type Summary struct {
	Albums int
	Media  int
	Failed int
}

// Extractor populates sidecar stubs from archive payloads
type Extractor struct {
	db     *db.DB
	cfg    config.Matching
	logger *zap.Logger
}

// New creates a new extractor instance
func New(store *db.DB, cfg config.Matching, logger *zap.Logger) *Extractor {
	return &Extractor{db: store, cfg: cfg, logger: logger}
}

// Extract parses every sidecar registered for archive a. A sidecar that
// cannot be read or parsed keeps its stub state and the run continues;
// only store failures are returned.
func (ex *Extractor) Extract(a archive.Reader) (Summary, error) {
	var sum Summary
	stubs, err := ex.db.MetaByArchive(a.Name())
	if err != nil {
		return sum, fmt.Errorf("failed to list sidecars of %s: %w", a.Name(), err)
	}

	for _, stub := range stubs {
		res := ex.read(a, stub.Path)
		switch {
		case res.Failed():
			sum.Failed++
			ex.logger.Warn("issue parsing sidecar", zap.String("path", res.Path), zap.Error(res.Err))
			err = ex.db.SetParseError(res.Path, res.Err.Error())
		case res.Album != nil:
			sum.Albums++
			err = ex.db.SetAlbumFields(res.Path, *res.Album)
		default:
			sum.Media++
			err = ex.db.SetMediaFields(res.Path, *res.Media)
		}
		if err != nil {
			return sum, fmt.Errorf("failed to store sidecar %s: %w", stub.Path, err)
		}
	}

	ex.logger.Info("parsed sidecars",
		zap.String("archive", a.Name()),
		zap.Int("albums", sum.Albums),
		zap.Int("media", sum.Media),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

func (ex *Extractor) read(a archive.Reader, metaPath string) Result {
	rc, err := a.Open(metaPath)
	if err != nil {
		return Result{Path: metaPath, Err: err}
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return Result{Path: metaPath, Err: fmt.Errorf("failed to read: %w", err)}
	}
	return Parse(metaPath, body, ex.cfg.AlbumMetaMarker)
}
