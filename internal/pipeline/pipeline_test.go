package pipeline

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/internal/embed"
	"github.com/projx/gphotos-export/internal/embed/embedtest"
	"github.com/projx/gphotos-export/internal/export"
	"github.com/projx/gphotos-export/pkg/models"
)

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(body); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

type env struct {
	store *db.DB
	pipe  *Pipeline
	out   string
}

func newEnv(t *testing.T, archiveDir string) *env {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	out := t.TempDir()
	embedder := embed.New(embedtest.New(), zap.NewNop()).WithLocation(time.UTC)
	exp := export.New(store, cfg.Folders, embedder, export.Config{OutputDir: out}, zap.NewNop())
	return &env{
		store: store,
		pipe:  New(store, cfg, archiveDir, exp, zap.NewNop()),
		out:   out,
	}
}

func takeoutArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	photo := make([]byte, 2048)
	writeZip(t, filepath.Join(dir, "A.zip"), map[string][]byte{
		"Vacation/IMG_0001.jpg":      photo,
		"Vacation/IMG_0001.jpg.json": []byte(`{"title": "IMG_0001.jpg", "photoTakenTime": {"timestamp": "1609459200"}}`),
		"Vacation/metadata.json":     []byte(`{"title": "Vacation", "description": ""}`),
		"Vacation/orphan.jpg":        []byte("orphan"),
		"Vacation/index.html":        []byte("<html></html>"),
	})
	return dir
}

func TestRunEndToEnd(t *testing.T) {
	e := newEnv(t, takeoutArchive(t))

	res, err := e.pipe.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Archives != 1 || res.Index.Media != 2 || res.Index.Meta != 2 || res.Index.Ignored != 1 {
		t.Errorf("index counts = %+v", res.Index)
	}
	if res.Match.Matched != 1 || res.Match.Unmatched != 1 {
		t.Errorf("match summary = %+v", res.Match)
	}
	if res.Dedup.AlsoLibrary != 1 {
		t.Errorf("dedup summary = %+v", res.Dedup)
	}

	for _, rel := range []string{"GPhotos/Albums/Vacation/IMG_0001.jpg", "GPhotos/Library/2021/IMG_0001.jpg"} {
		fi, err := os.Stat(filepath.Join(e.out, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
		if fi.Size() != 2048 {
			t.Errorf("%s size = %d; want 2048", rel, fi.Size())
		}
	}

	rec, err := e.store.GetMedia("Vacation/IMG_0001.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Folder != "Albums/Vacation" || rec.Disposition != models.DispositionAlsoLibrary {
		t.Errorf("record = %+v", rec)
	}
	meta, err := e.store.GetMeta(rec.MetaPath)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Year != 2021 || meta.TakenFormatted != "2021-01-01 00:00:00" {
		t.Errorf("meta = %+v", meta)
	}

	_, status, _, err := e.store.LastRun()
	if err != nil || status != db.RunCompleted {
		t.Errorf("LastRun() status = %q, err = %v", status, err)
	}
}

func TestRunTwiceIsStable(t *testing.T) {
	e := newEnv(t, takeoutArchive(t))

	snapshot := func() ([]models.MediaRecord, []models.MetaRecord) {
		media, err := e.store.AllMedia()
		if err != nil {
			t.Fatal(err)
		}
		meta, err := e.store.MetaByArchive("A.zip")
		if err != nil {
			t.Fatal(err)
		}
		return media, meta
	}

	if _, err := e.pipe.Run(); err != nil {
		t.Fatal(err)
	}
	media1, meta1 := snapshot()

	res, err := e.pipe.Run()
	if err != nil {
		t.Fatal(err)
	}
	media2, meta2 := snapshot()

	if !reflect.DeepEqual(media1, media2) {
		t.Errorf("media records changed:\n%+v\n%+v", media1, media2)
	}
	if !reflect.DeepEqual(meta1, meta2) {
		t.Errorf("meta records changed:\n%+v\n%+v", meta1, meta2)
	}
	if res.Export.Written != 0 || res.Export.Resumed != 2 {
		t.Errorf("second export = %+v", res.Export)
	}
}

func TestRunWithoutArchives(t *testing.T) {
	e := newEnv(t, t.TempDir())

	_, err := e.pipe.Run()
	if !errors.Is(err, ErrNoArchivesFound) {
		t.Fatalf("Run() error = %v; want ErrNoArchivesFound", err)
	}
	if _, _, _, err := e.store.LastRun(); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("LastRun() error = %v; want no run recorded", err)
	}
}
