package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cheggaaa/pb/v3"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/archive"
	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/internal/embed"
	"github.com/projx/gphotos-export/pkg/models"
)

// Config holds exporter settings
type Config struct {
	OutputDir string
	Progress  bool
}

// DefaultConfig exports into the working directory with a progress bar
func DefaultConfig() Config {
	return Config{
		OutputDir: ".",
		Progress:  true,
	}
}

// Summary counts export outcomes over one or more archives
type Summary struct {
	Written       int
	Renamed       int
	Skipped       int
	Resumed       int
	Failed        int
	LibraryCopies int
	Bytes         int64
}

func (s *Summary) add(res models.ExportResult) {
	switch res.Note {
	case models.NoteRenamed:
		s.Renamed++
	case models.NoteSkippedSame:
		s.Skipped++
	case models.NoteAlreadyExported:
		s.Resumed++
	case models.NoteFailed:
		s.Failed++
	}
	if res.Written {
		s.Written++
		s.Bytes += res.Size
	}
}

// Exporter materializes matched records under <OutputDir>/<ExportBase>
type Exporter struct {
	db       *db.DB
	folders  config.Folders
	root     string
	embedder *embed.Embedder
	progress bool
	logger   *zap.Logger
}

// New creates a new exporter instance
func New(store *db.DB, folders config.Folders, embedder *embed.Embedder, cfg Config, logger *zap.Logger) *Exporter {
	return &Exporter{
		db:       store,
		folders:  folders,
		root:     filepath.Join(cfg.OutputDir, folders.ExportBase),
		embedder: embedder,
		progress: cfg.Progress,
		logger:   logger,
	}
}

// Root is the directory exported files are written under
func (e *Exporter) Root() string {
	return e.root
}

// ExportArchive copies every classified record of a, and its library copy
// when the dedup disposition asks for one.
func (e *Exporter) ExportArchive(a archive.Reader) (Summary, error) {
	var sum Summary
	matches, err := e.db.Matches(db.MatchFilter{Archive: a.Name(), Classified: true})
	if err != nil {
		return sum, fmt.Errorf("failed to list matches of %s: %w", a.Name(), err)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return natural.Less(matches[i].Media.Path, matches[j].Media.Path)
	})

	var bar *pb.ProgressBar
	if e.progress && len(matches) > 0 {
		bar = pb.StartNew(len(matches))
		bar.Set("prefix", a.Name()+" ")
		defer bar.Finish()
	}

	for _, m := range matches {
		res := e.exportOne(a, m, filepath.Join(e.root, filepath.FromSlash(m.Media.Folder)), m.Media.Exported)
		if err := e.record(m.Media.Path, models.TargetPrimary, res); err != nil {
			return sum, err
		}
		sum.add(res)

		if m.Media.Disposition == models.DispositionAlsoLibrary {
			dir := filepath.Join(e.root, e.folders.Library, strconv.Itoa(m.Meta.Year))
			lib := e.exportOne(a, m, dir, m.Media.LibExported)
			if err := e.record(m.Media.Path, models.TargetLibrary, lib); err != nil {
				return sum, err
			}
			sum.add(lib)
			if lib.Written {
				sum.LibraryCopies++
			}
		}

		if bar != nil {
			bar.Increment()
		}
	}

	e.logger.Info("exported archive",
		zap.String("archive", a.Name()),
		zap.Int("written", sum.Written),
		zap.Int("renamed", sum.Renamed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("resumed", sum.Resumed),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// record stores res unless the target was exported by an earlier run, so
// re-runs leave records unchanged
func (e *Exporter) record(mediaPath string, target models.ExportTarget, res models.ExportResult) error {
	if res.Note == models.NoteAlreadyExported {
		return nil
	}
	return e.db.SetExport(mediaPath, target, res)
}

func (e *Exporter) exportOne(a archive.Reader, m models.Match, dir, previous string) models.ExportResult {
	// a destination recorded under another output directory does not count
	if previous != "" && filepath.Dir(previous) == filepath.Clean(dir) {
		if _, err := os.Stat(previous); err == nil {
			return models.ExportResult{Path: previous, Note: models.NoteAlreadyExported}
		}
	}

	fail := func(msg string, err error) models.ExportResult {
		e.logger.Warn(msg, zap.String("path", m.Media.Path), zap.String("dir", dir), zap.Error(err))
		return models.ExportResult{Note: models.NoteFailed}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail("failed to create destination folder", err)
	}
	dest, note, write, err := Resolve(dir, m.Media.Filename, m.Media.Size)
	if err != nil {
		return fail("failed to resolve destination", err)
	}
	if !write {
		return models.ExportResult{Path: dest, Note: note}
	}

	n, err := copyEntry(a, m.Media.Path, dest)
	if err != nil {
		return fail("failed to copy file", err)
	}

	taken := m.Meta.TakenTime()
	exif := e.embedder.Embed(dest, taken, m.Meta.Description)
	// the file time is set even when embedding failed
	if err := os.Chtimes(dest, taken, taken); err != nil {
		e.logger.Warn("failed to set file time", zap.String("path", dest), zap.Error(err))
	}

	return models.ExportResult{Path: dest, Note: note, Exif: exif, Written: true, Size: n}
}

// copyEntry streams an archive entry to a new file at dest. A partial
// file is removed on failure.
func copyEntry(a archive.Reader, entryPath, dest string) (int64, error) {
	src, err := a.Open(entryPath)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = fmt.Errorf("%w (cleanup: %v)", err, rmErr)
		}
		return 0, err
	}
	return n, nil
}
