package dedup

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

func match(path, filename string, takenAt int64) models.Match {
	return models.Match{
		Media: models.MediaRecord{Path: path, Filename: filename},
		Meta:  models.MetaRecord{TakenAt: takenAt},
	}
}

func TestDisposition(t *testing.T) {
	lib := NewLibrary([]models.Match{
		match("T/2021-01-01/IMG_1.jpg", "IMG_1.jpg", 1609459200),
		match("T/2021-01-02/IMG_1.jpg", "IMG_1.jpg", 1609459300),
	})

	tests := []struct {
		name       string
		album      models.Match
		want       models.Disposition
		wantSource string
	}{
		{"same name and time", match("T/Trip/IMG_1.jpg", "IMG_1.jpg", 1609459200), models.DispositionAlbumOnly, "T/2021-01-01/IMG_1.jpg"},
		{"second library record", match("T/Trip/IMG_1.jpg", "IMG_1.jpg", 1609459300), models.DispositionAlbumOnly, "T/2021-01-02/IMG_1.jpg"},
		{"different time", match("T/Trip/IMG_1.jpg", "IMG_1.jpg", 1609459201), models.DispositionAlsoLibrary, ""},
		{"different name", match("T/Trip/IMG_2.jpg", "IMG_2.jpg", 1609459200), models.DispositionAlsoLibrary, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := lib.Disposition(tt.album)
			if got != tt.want || src != tt.wantSource {
				t.Errorf("Disposition() = %v, %q; want %v, %q", got, src, tt.want, tt.wantSource)
			}
		})
	}
}

func TestNewLibraryFirstWins(t *testing.T) {
	lib := NewLibrary([]models.Match{
		match("T/a/IMG_1.jpg", "IMG_1.jpg", 1),
		match("T/b/IMG_1.jpg", "IMG_1.jpg", 1),
	})
	if _, src := lib.Disposition(match("T/c/IMG_1.jpg", "IMG_1.jpg", 1)); src != "T/a/IMG_1.jpg" {
		t.Errorf("source = %q; want first library record", src)
	}
}

func TestDedup(t *testing.T) {
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	records := []struct {
		path   string
		folder string
		taken  int64
	}{
		{"T/2021-01-01/IMG_1.jpg", "Library/2021", 1609459200},
		{"T/Trip/IMG_1.jpg", "Albums/Trip", 1609459200},
		{"T/Trip/IMG_2.jpg", "Albums/Trip", 1609459200},
	}
	for _, r := range records {
		media := models.MediaRecord{Path: r.path, Archive: "A.zip", Filename: filepath.Base(r.path), Size: 1, Ext: "JPG"}
		must(t, store.UpsertMediaBatch([]models.MediaRecord{media}))
		must(t, store.UpsertMetaStubs([]models.MetaRecord{{Path: r.path + ".json", Archive: "A.zip"}}))
		must(t, store.SetMediaFields(r.path+".json", models.MediaFields{TakenAt: r.taken, Year: 2021}))
		must(t, store.SetMatch(r.path, r.path+".json"))
		must(t, store.SetFolder(r.path, r.folder))
	}

	sum, err := New(store, config.Default().Folders, zap.NewNop()).Dedup()
	if err != nil {
		t.Fatalf("Dedup() error = %v", err)
	}
	if sum.AlbumOnly != 1 || sum.AlsoLibrary != 1 || sum.LibraryFiles != 1 {
		t.Errorf("Dedup() summary = %+v", sum)
	}

	dup, err := store.GetMedia("T/Trip/IMG_1.jpg")
	must(t, err)
	if dup.Disposition != models.DispositionAlbumOnly || dup.Source != "T/2021-01-01/IMG_1.jpg" {
		t.Errorf("duplicate album record = %+v", dup)
	}
	other, err := store.GetMedia("T/Trip/IMG_2.jpg")
	must(t, err)
	if other.Disposition != models.DispositionAlsoLibrary || other.Source != "" {
		t.Errorf("album record = %+v", other)
	}
	lib, err := store.GetMedia("T/2021-01-01/IMG_1.jpg")
	must(t, err)
	if lib.Disposition != models.DispositionUnset {
		t.Errorf("library record disposition = %v; want unset", lib.Disposition)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
