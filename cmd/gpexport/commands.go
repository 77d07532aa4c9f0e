package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/internal/embed"
	"github.com/projx/gphotos-export/internal/export"
	"github.com/projx/gphotos-export/internal/logging"
	"github.com/projx/gphotos-export/internal/pipeline"
	"github.com/projx/gphotos-export/internal/report"
	"github.com/projx/gphotos-export/internal/sync"
	"github.com/projx/gphotos-export/pkg/models"
	"github.com/projx/gphotos-export/pkg/utils"
)

// loadEnv reads .env from the working directory when present
func loadEnv(c *cli.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// env is what every command works with
type env struct {
	cfg    *config.Config
	store  *db.DB
	logger *zap.Logger
}

func openEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if p := c.String("db"); p != "" {
		cfg.Store.Path = p
	}

	logger, err := logging.New(c.String("log-level"), c.String("log-file"))
	if err != nil {
		return nil, err
	}

	store, err := db.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &env{cfg: cfg, store: store, logger: logger}, nil
}

func (e *env) close() {
	e.store.Close()
	_ = e.logger.Sync()
}

// exportRoot is where exported files land
func (e *env) exportRoot(c *cli.Context) string {
	return filepath.Join(c.String("out"), e.cfg.Folders.ExportBase)
}

// newPipeline builds the pipeline. The returned cleanup stops exiftool.
func (e *env) newPipeline(c *cli.Context) (*pipeline.Pipeline, func()) {
	var backend embed.Backend = embed.Disabled{}
	cleanup := func() {}
	if et, err := embed.NewExifTool(); err != nil {
		e.logger.Warn("exiftool unavailable, metadata will not be embedded", zap.Error(err))
	} else {
		backend = et
		cleanup = func() { et.Close() }
	}

	embedder := embed.New(backend, e.logger)
	exp := export.New(e.store, e.cfg.Folders, embedder, export.Config{
		OutputDir: c.String("out"),
		Progress:  !c.Bool("no-progress"),
	}, e.logger)
	return pipeline.New(e.store, e.cfg, c.String("archives"), exp, e.logger), cleanup
}

func runAll(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	p, cleanup := e.newPipeline(c)
	defer cleanup()

	res, err := p.Run()
	if errors.Is(err, pipeline.ErrNoArchivesFound) {
		fmt.Printf("No archives found in %s, nothing to do\n", c.String("archives"))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s completed:\n", res.RunID)
	fmt.Printf("- Archives: %d\n", res.Archives)
	fmt.Printf("- Media files: %d, metadata files: %d (%d unreadable)\n", res.Index.Media, res.Index.Meta, res.Extract.Failed)
	fmt.Printf("- Matched: %d, unmatched: %d, edited: %d\n", res.Match.Matched, res.Match.Unmatched, res.Match.Edited)
	fmt.Printf("- Album files already in library: %d\n", res.Dedup.AlbumOnly)
	printExport(res.Export)
	return nil
}

func printExport(s export.Summary) {
	fmt.Printf("- Written: %d files (%s), %d library copies\n", s.Written, utils.FormatSize(s.Bytes), s.LibraryCopies)
	fmt.Printf("- Renamed: %d, skipped: %d, already exported: %d, failed: %d\n", s.Renamed, s.Skipped, s.Resumed, s.Failed)
}

func runIndex(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	p := pipeline.New(e.store, e.cfg, c.String("archives"), nil, e.logger)
	paths, err := p.Archives()
	if err != nil {
		return err
	}
	counts, err := p.Index(paths)
	if err != nil {
		return err
	}
	sum, err := p.Extract()
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d archives: %d media files, %d metadata files\n", len(paths), counts.Media, counts.Meta)
	fmt.Printf("Parsed %d media and %d album metadata files, %d failed\n", sum.Media, sum.Albums, sum.Failed)
	return nil
}

func runMatch(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	p := pipeline.New(e.store, e.cfg, c.String("archives"), nil, e.logger)
	var res pipeline.Result
	if err := p.MatchAll(&res); err != nil {
		return err
	}

	fmt.Printf("Matched: %d, unmatched: %d, edited: %d\n", res.Match.Matched, res.Match.Unmatched, res.Match.Edited)
	fmt.Printf("Album files already in library: %d, needing a library copy: %d\n", res.Dedup.AlbumOnly, res.Dedup.AlsoLibrary)
	return nil
}

func runExport(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	p, cleanup := e.newPipeline(c)
	defer cleanup()

	sum, err := p.Export()
	if err != nil {
		return err
	}
	fmt.Println("Export completed:")
	printExport(sum)
	return nil
}

func showStatus(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	stats, err := e.store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Printf("Store: %s\n", e.store.Path())
	if id, status, started, err := e.store.LastRun(); err == nil {
		fmt.Printf("Last run: %s (%s, started %s UTC)\n", id, status, started)
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	fmt.Printf("Archives: %s\n", humanize.Comma(stats.Archives))
	fmt.Printf("Media files: %s (Size: %s)\n", humanize.Comma(stats.MediaFiles), humanize.IBytes(uint64(stats.MediaSize)))
	fmt.Printf("Metadata files: %s (%s unreadable)\n", humanize.Comma(stats.MetaFiles), humanize.Comma(stats.ParseFailures))
	fmt.Printf("Matched: %s (Size: %s)\n", humanize.Comma(stats.Matched), humanize.IBytes(uint64(stats.MatchedSize)))
	fmt.Printf("Unmatched: %s\n", humanize.Comma(stats.Unmatched))
	fmt.Printf("Edited variants: %s\n", humanize.Comma(stats.Edited))
	fmt.Printf("Exported: %s, library copies: %s\n", humanize.Comma(stats.Exported), humanize.Comma(stats.LibraryCopies))

	if stats.MediaFiles > 0 {
		fmt.Printf("Progress: %.2f%% matched, %.2f%% exported\n",
			float64(stats.Matched)/float64(stats.MediaFiles)*100,
			float64(stats.Exported)/float64(stats.MediaFiles)*100)
	}

	pushes, err := e.store.PushCounts()
	if err != nil {
		return err
	}
	if len(pushes) > 0 {
		fmt.Printf("Push: %s uploaded, %s pending, %s failed, %s skipped\n",
			humanize.Comma(pushes[models.PushUploaded]),
			humanize.Comma(pushes[models.PushPending]),
			humanize.Comma(pushes[models.PushFailed]),
			humanize.Comma(pushes[models.PushSkipped]))
	}
	return nil
}

func writeReport(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	r, err := report.Build(e.store)
	if err != nil {
		return err
	}

	output := c.String("output")
	switch c.String("format") {
	case "yaml":
		if output == "" {
			return r.WriteYAML(os.Stdout)
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := r.WriteYAML(f); err != nil {
			return err
		}
	case "xlsx":
		if output == "" {
			output = "report.xlsx"
		}
		if err := r.WriteXLSX(output); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown report format %q", c.String("format"))
	}

	fmt.Printf("Report written to %s\n", output)
	return nil
}

func startPush(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.close()

	cfg := e.cfg.Push
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{"endpoint", &cfg.Endpoint},
		{"bucket", &cfg.Bucket},
		{"folder", &cfg.Folder},
		{"access-key", &cfg.AccessKey},
		{"secret-key", &cfg.SecretKey},
	} {
		if v := c.String(o.flag); v != "" {
			*o.dst = v
		}
	}
	if c.Bool("insecure") {
		cfg.Secure = false
	}
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return fmt.Errorf("push needs an endpoint and a bucket")
	}

	syncerConfig := sync.DefaultSyncerConfig()
	syncerConfig.NumWorkers = cfg.Workers
	if w := c.Int("workers"); w > 0 {
		syncerConfig.NumWorkers = w
	}
	syncerConfig.Progress = !c.Bool("no-progress")

	syncer, err := sync.NewSyncer(e.store, cfg, e.exportRoot(c), &syncerConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create syncer: %w", err)
	}

	queued, err := syncer.Queue()
	if err != nil {
		return err
	}
	fmt.Printf("%d exported files known, pushing to %s/%s (press q to stop)\n", queued, cfg.Endpoint, cfg.Bucket)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if keyCtx, release, err := sync.StopOnKey(ctx); err != nil {
		e.logger.Debug("keyboard unavailable, use Ctrl+C to stop", zap.Error(err))
	} else {
		ctx = keyCtx
		defer release()
	}

	stats, err := syncer.Push(ctx)
	if err != nil {
		return fmt.Errorf("failed to push files: %w", err)
	}

	if stats.Stopped {
		fmt.Printf("\nPush stopped after %s:\n", utils.FormatDuration(stats.Elapsed))
	} else {
		fmt.Printf("\nPush completed in %s:\n", utils.FormatDuration(stats.Elapsed))
	}
	fmt.Printf("- Uploaded: %d files (%s)\n", stats.Uploaded, utils.FormatSize(stats.UploadedSize))
	fmt.Printf("- Retried: %d files\n", stats.Retried)
	fmt.Printf("- Skipped: %d files (%s)\n", stats.Skipped, utils.FormatSize(stats.SkippedSize))
	fmt.Printf("- Failed: %d files\n", stats.Failed)
	return nil
}
