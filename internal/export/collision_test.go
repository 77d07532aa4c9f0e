package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/projx/gphotos-export/pkg/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		existing  map[string]int
		size      int64
		wantName  string
		wantNote  string
		wantWrite bool
	}{
		{
			name:      "free name",
			size:      10,
			wantName:  "IMG_1.jpg",
			wantNote:  models.NoteNewFile,
			wantWrite: true,
		},
		{
			name:     "same name and size",
			existing: map[string]int{"IMG_1.jpg": 10},
			size:     10,
			wantName: "IMG_1.jpg",
			wantNote: models.NoteSkippedSame,
		},
		{
			name:      "same name different size",
			existing:  map[string]int{"IMG_1.jpg": 10},
			size:      20,
			wantName:  "IMG_1_1.jpg",
			wantNote:  models.NoteRenamed,
			wantWrite: true,
		},
		{
			name:      "suffix taken by another size",
			existing:  map[string]int{"IMG_1.jpg": 10, "IMG_1_1.jpg": 30},
			size:      20,
			wantName:  "IMG_1_2.jpg",
			wantNote:  models.NoteRenamed,
			wantWrite: true,
		},
		{
			name:      "suffix with same size is not the same file",
			existing:  map[string]int{"IMG_1.jpg": 10, "IMG_1_1.jpg": 20},
			size:      20,
			wantName:  "IMG_1_2.jpg",
			wantNote:  models.NoteRenamed,
			wantWrite: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, size := range tt.existing {
				if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
					t.Fatal(err)
				}
			}

			dest, note, write, err := Resolve(dir, "IMG_1.jpg", tt.size)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if dest != filepath.Join(dir, tt.wantName) || note != tt.wantNote || write != tt.wantWrite {
				t.Errorf("Resolve() = %q, %q, %v; want %q, %q, %v",
					filepath.Base(dest), note, write, tt.wantName, tt.wantNote, tt.wantWrite)
			}
		})
	}
}
