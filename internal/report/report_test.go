package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/models"
)

func seededStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	err = store.UpsertMediaBatch([]models.MediaRecord{
		{Path: "T/Trip/a.jpg", Archive: "A.zip", Filename: "a.jpg", Size: 10, Ext: "JPG"},
		{Path: "T/Trip/orphan.jpg", Archive: "A.zip", Filename: "orphan.jpg", Size: 5, Ext: "JPG"},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = store.UpsertMetaStubs([]models.MetaRecord{
		{Path: "T/Trip/a.jpg.json", Archive: "A.zip"},
		{Path: "T/Trip/broken.jpg.json", Archive: "A.zip"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetMatch("T/Trip/a.jpg", "T/Trip/a.jpg.json"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetParseError("T/Trip/broken.jpg.json", "invalid JSON"); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestBuild(t *testing.T) {
	r, err := Build(seededStore(t))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if r.Summary.MediaFiles != 2 || r.Summary.Matched != 1 || r.Summary.Unmatched != 1 || r.Summary.ParseFailures != 1 {
		t.Errorf("summary = %+v", r.Summary)
	}
	if len(r.Unmatched) != 1 || r.Unmatched[0].Path != "T/Trip/orphan.jpg" {
		t.Errorf("unmatched = %+v", r.Unmatched)
	}
	if len(r.ParseFailures) != 1 || r.ParseFailures[0].Reason != "invalid JSON" {
		t.Errorf("parse failures = %+v", r.ParseFailures)
	}
}

func TestWriteYAML(t *testing.T) {
	r, err := Build(seededStore(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := r.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	var decoded Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid YAML: %v", err)
	}
	if decoded.Summary.Unmatched != 1 || len(decoded.ParseFailures) != 1 {
		t.Errorf("decoded report = %+v", decoded)
	}
}

func TestWriteXLSX(t *testing.T) {
	r, err := Build(seededStore(t))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := r.WriteXLSX(path); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetUnmatched)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "T/Trip/orphan.jpg" {
		t.Errorf("unmatched sheet = %v", rows)
	}

	rows, err = f.GetRows(sheetFailures)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][2] != "invalid JSON" {
		t.Errorf("parse failures sheet = %v", rows)
	}
}
