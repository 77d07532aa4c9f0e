package classify

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/projx/gphotos-export/internal/config"
	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

func TestDestination(t *testing.T) {
	cfg := config.Default().Folders

	tests := []struct {
		name     string
		folder   string
		trashed  bool
		year     int
		want     string
		wantRule Rule
	}{
		{"hangouts outranks trashed", "Hangout_ Bob", true, 2020, "Hangouts/Bob", RuleHangouts},
		{"hangouts outranks dated", "Hangout_2020-01-01", false, 2020, "Hangouts/2020-01-01", RuleHangouts},
		{"trashed outranks dated", "2020-05-01", true, 2020, "Trashed", RuleTrash},
		{"trashed outranks album", "Vacation", true, 2020, "Trashed", RuleTrash},
		{"dated outranks album", "2019-12-31 #2", false, 2020, "Library/2020", RuleLibrary},
		{"album", "Vacation", false, 2021, "Albums/Vacation", RuleAlbum},
		{"date not in first ten characters", "Trip 2019-12-31", false, 2019, "Albums/Trip 2019-12-31", RuleAlbum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := Destination(tt.folder, tt.trashed, tt.year, cfg)
			if got != tt.want || rule != tt.wantRule {
				t.Errorf("Destination(%q, %v, %d) = %q, %s; want %q, %s",
					tt.folder, tt.trashed, tt.year, got, rule, tt.want, tt.wantRule)
			}
		})
	}
}

func TestFolderName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Takeout/Google Photos/Vacation/IMG_1.jpg", "Vacation"},
		{"Vacation/IMG_1.jpg", "Vacation"},
		{"IMG_1.jpg", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := FolderName(tt.path); got != tt.want {
				t.Errorf("FolderName(%q) = %q; want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	media := []models.MediaRecord{
		{Path: "T/Vacation/a.jpg", Archive: "A.zip", Filename: "a.jpg", Size: 1, Ext: "JPG"},
		{Path: "T/2021-01-01/b.jpg", Archive: "A.zip", Filename: "b.jpg", Size: 1, Ext: "JPG"},
		{Path: "T/Vacation/stub.jpg", Archive: "A.zip", Filename: "stub.jpg", Size: 1, Ext: "JPG"},
		{Path: "root.jpg", Archive: "A.zip", Filename: "root.jpg", Size: 1, Ext: "JPG"},
	}
	meta := []models.MetaRecord{
		{Path: "T/Vacation/a.jpg.json", Archive: "A.zip"},
		{Path: "T/2021-01-01/b.jpg.json", Archive: "A.zip"},
		{Path: "T/Vacation/stub.jpg.json", Archive: "A.zip"},
		{Path: "root.jpg.json", Archive: "A.zip"},
	}
	if err := store.UpsertMediaBatch(media); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertMetaStubs(meta); err != nil {
		t.Fatal(err)
	}
	for i := range media {
		if err := store.SetMatch(media[i].Path, meta[i].Path); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []string{"T/Vacation/a.jpg.json", "T/2021-01-01/b.jpg.json", "root.jpg.json"} {
		if err := store.SetMediaFields(p, models.MediaFields{TakenAt: 1609459200, Year: 2021}); err != nil {
			t.Fatal(err)
		}
	}

	c := New(store, config.Default().Folders, zap.NewNop())
	sum, err := c.Classify()
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if sum.ByRule[RuleAlbum] != 1 || sum.ByRule[RuleLibrary] != 1 || sum.Skipped != 2 {
		t.Errorf("Classify() summary = %+v", sum)
	}

	want := map[string]string{
		"T/Vacation/a.jpg":    "Albums/Vacation",
		"T/2021-01-01/b.jpg":  "Library/2021",
		"T/Vacation/stub.jpg": "",
		"root.jpg":            "",
	}
	for p, folder := range want {
		rec, err := store.GetMedia(p)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Folder != folder {
			t.Errorf("%s folder = %q; want %q", p, rec.Folder, folder)
		}
	}
}
