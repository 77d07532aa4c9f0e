// Package archivetest provides an in-memory archive.Reader for tests.
package archivetest

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/projx/gphotos-export/internal/archive"
)

// Archive is an in-memory archive.Reader
type Archive struct {
	name  string
	files map[string][]byte
	// Opened counts Open calls per path
	Opened map[string]int
}

var _ archive.Reader = (*Archive)(nil)

func New(name string, files map[string][]byte) *Archive {
	return &Archive{name: name, files: files, Opened: map[string]int{}}
}

// Bytes returns n bytes of filler, handy for sized media fixtures
func Bytes(n int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, n)
}

func (a *Archive) Name() string { return a.name }

func (a *Archive) Entries() []archive.Entry {
	entries := make([]archive.Entry, 0, len(a.files))
	for p, b := range a.files {
		entries = append(entries, archive.Entry{Path: p, Size: int64(len(b))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func (a *Archive) Size(path string) (int64, error) {
	b, ok := a.files[path]
	if !ok {
		return 0, fmt.Errorf("%s: entry %s not found", a.name, path)
	}
	return int64(len(b)), nil
}

func (a *Archive) Open(path string) (io.ReadCloser, error) {
	b, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: entry %s not found", a.name, path)
	}
	a.Opened[path]++
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (a *Archive) Close() error { return nil }
