package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/archive"
	"github.com/projx/gphotos-export/internal/classify"
	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/internal/dedup"
	"github.com/projx/gphotos-export/internal/export"
	"github.com/projx/gphotos-export/internal/extract"
	"github.com/projx/gphotos-export/internal/index"
	"github.com/projx/gphotos-export/internal/match"
)

// ErrNoArchivesFound halts a run before any stage starts
var ErrNoArchivesFound = errors.New("no archives found")

// Result collects the stage summaries of one run
type Result struct {
	RunID    string
	Archives int
	Index    index.Counts
	Extract  extract.Summary
	Match    match.Summary
	Classify classify.Summary
	Dedup    dedup.Summary
	Export   export.Summary
}

// Pipeline sequences the stages over the archives in one directory. Each
// stage completes over the whole record set before the next one starts.
type Pipeline struct {
	db         *db.DB
	cfg        *config.Config
	archiveDir string
	exporter   *export.Exporter
	logger     *zap.Logger
}

// New creates a new pipeline instance
func New(store *db.DB, cfg *config.Config, archiveDir string, exporter *export.Exporter, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		db:         store,
		cfg:        cfg,
		archiveDir: archiveDir,
		exporter:   exporter,
		logger:     logger,
	}
}

// Archives lists the archives to process
func (p *Pipeline) Archives() ([]string, error) {
	paths, err := archive.Find(p.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list archives in %s: %w", p.archiveDir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoArchivesFound, p.archiveDir)
	}
	return paths, nil
}

// withArchive opens the named archive of archiveDir for the duration of fn
func (p *Pipeline) withArchive(name string, fn func(a archive.Reader) error) error {
	a, err := archive.OpenZip(filepath.Join(p.archiveDir, name))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// Index registers the entries of every archive
func (p *Pipeline) Index(paths []string) (index.Counts, error) {
	p.logger.Info(">> Indexing archives...", zap.Int("archives", len(paths)))
	var total index.Counts
	ix := index.New(p.db, p.cfg.Matching, p.logger)
	for _, path := range paths {
		err := p.withArchive(filepath.Base(path), func(a archive.Reader) error {
			c, err := ix.Index(a)
			total.Media += c.Media
			total.Meta += c.Meta
			total.Ignored += c.Ignored
			return err
		})
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Extract parses the sidecars of every archive that holds any
func (p *Pipeline) Extract() (extract.Summary, error) {
	p.logger.Info(">> Parsing metadata files...")
	var total extract.Summary
	names, err := p.db.ArchivesWithMeta()
	if err != nil {
		return total, err
	}
	ex := extract.New(p.db, p.cfg.Matching, p.logger)
	for _, name := range names {
		err := p.withArchive(name, func(a archive.Reader) error {
			s, err := ex.Extract(a)
			total.Albums += s.Albums
			total.Media += s.Media
			total.Failed += s.Failed
			return err
		})
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Match pairs media with sidecars
func (p *Pipeline) Match() (match.Summary, error) {
	p.logger.Info(">> Matching media files with metadata...")
	return match.New(p.db, p.cfg.Matching, p.logger).Match()
}

// Classify assigns destination folders
func (p *Pipeline) Classify() (classify.Summary, error) {
	p.logger.Info(">> Deciding destination folders...")
	return classify.New(p.db, p.cfg.Folders, p.logger).Classify()
}

// Dedup decides which album files also need a library copy
func (p *Pipeline) Dedup() (dedup.Summary, error) {
	p.logger.Info(">> Checking albums against the library...")
	return dedup.New(p.db, p.cfg.Folders, p.logger).Dedup()
}

// Export materializes every classified record
func (p *Pipeline) Export() (export.Summary, error) {
	p.logger.Info(">> Exporting files...", zap.String("root", p.exporter.Root()))
	var total export.Summary
	names, err := p.db.ArchivesWithMedia()
	if err != nil {
		return total, err
	}
	for _, name := range names {
		err := p.withArchive(name, func(a archive.Reader) error {
			s, err := p.exporter.ExportArchive(a)
			total.Written += s.Written
			total.Renamed += s.Renamed
			total.Skipped += s.Skipped
			total.Resumed += s.Resumed
			total.Failed += s.Failed
			total.LibraryCopies += s.LibraryCopies
			total.Bytes += s.Bytes
			return err
		})
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// MatchAll runs matching, classification and dedup in order
func (p *Pipeline) MatchAll(res *Result) error {
	var err error
	if res.Match, err = p.Match(); err != nil {
		return err
	}
	if res.Classify, err = p.Classify(); err != nil {
		return err
	}
	res.Dedup, err = p.Dedup()
	return err
}

// Run executes every stage and records the run in the store
func (p *Pipeline) Run() (*Result, error) {
	paths, err := p.Archives()
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Archives: len(paths)}
	if err := p.db.StartRun(res.RunID, len(paths)); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	p.logger.Info("starting run", zap.String("run", res.RunID), zap.Int("archives", len(paths)))

	if err := p.run(paths, res); err != nil {
		p.finish(res.RunID, db.RunFailed)
		return res, err
	}
	p.finish(res.RunID, db.RunCompleted)
	return res, nil
}

func (p *Pipeline) run(paths []string, res *Result) error {
	var err error
	if res.Index, err = p.Index(paths); err != nil {
		return err
	}
	if res.Extract, err = p.Extract(); err != nil {
		return err
	}
	if err := p.MatchAll(res); err != nil {
		return err
	}
	res.Export, err = p.Export()
	return err
}

func (p *Pipeline) finish(id, status string) {
	var matched, unmatched int64
	if stats, err := p.db.GetStats(); err == nil {
		matched, unmatched = stats.Matched, stats.Unmatched
	}
	if err := p.db.FinishRun(id, status, matched, unmatched); err != nil {
		p.logger.Warn("failed to record run outcome", zap.String("run", id), zap.Error(err))
	}
}
