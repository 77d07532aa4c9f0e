package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"sort"
)

// Entry is one file inside an archive
type Entry struct {
	Path string
	Size int64
}

// Reader is the archive collaborator the pipeline stages depend on
type Reader interface {
	// Name identifies the archive in the record store
	Name() string
	Entries() []Entry
	Size(path string) (int64, error)
	Open(path string) (io.ReadCloser, error)
	Close() error
}

// Zip reads a Takeout zip part
type Zip struct {
	name    string
	rc      *zip.ReadCloser
	entries map[string]*zip.File
}

// OpenZip opens the zip file at path. The archive is named by its base name.
func OpenZip(path string) (*Zip, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	z := &Zip{
		name:    filepath.Base(path),
		rc:      rc,
		entries: make(map[string]*zip.File, len(rc.File)),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		z.entries[f.Name] = f
	}
	return z, nil
}

func (z *Zip) Name() string {
	return z.name
}

// Entries lists file entries in path order
func (z *Zip) Entries() []Entry {
	entries := make([]Entry, 0, len(z.entries))
	for name, f := range z.entries {
		entries = append(entries, Entry{Path: name, Size: int64(f.UncompressedSize64)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func (z *Zip) Size(path string) (int64, error) {
	f, ok := z.entries[path]
	if !ok {
		return 0, fmt.Errorf("%s: entry %s not found", z.name, path)
	}
	return int64(f.UncompressedSize64), nil
}

func (z *Zip) Open(path string) (io.ReadCloser, error) {
	f, ok := z.entries[path]
	if !ok {
		return nil, fmt.Errorf("%s: entry %s not found", z.name, path)
	}
	return f.Open()
}

func (z *Zip) Close() error {
	return z.rc.Close()
}

// Find lists the zip archives directly inside dir, sorted by name
func Find(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.zip"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
