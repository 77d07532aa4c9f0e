package report

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/projx/gphotos-export/internal/db"
	"github.com/projx/gphotos-export/pkg/utils"
)

// Summary is the store-wide overview at the top of a report
type Summary struct {
	Archives      int64  `yaml:"archives"`
	MediaFiles    int64  `yaml:"media_files"`
	MediaSize     string `yaml:"media_size"`
	Sidecars      int64  `yaml:"sidecars"`
	ParseFailures int64  `yaml:"parse_failures"`
	Matched       int64  `yaml:"matched"`
	Unmatched     int64  `yaml:"unmatched"`
	Edited        int64  `yaml:"edited"`
	Exported      int64  `yaml:"exported"`
	LibraryCopies int64  `yaml:"library_copies"`
}

// UnmatchedFile is a media file no sidecar was found for
type UnmatchedFile struct {
	Path    string `yaml:"path"`
	Archive string `yaml:"archive"`
	Size    int64  `yaml:"size"`
}

// ParseFailure is a sidecar left unpopulated
type ParseFailure struct {
	Path    string `yaml:"path"`
	Archive string `yaml:"archive"`
	Reason  string `yaml:"reason"`
}

// Report lists what a run could not handle
type Report struct {
	GeneratedAt   string          `yaml:"generated_at"`
	Summary       Summary         `yaml:"summary"`
	Unmatched     []UnmatchedFile `yaml:"unmatched"`
	ParseFailures []ParseFailure  `yaml:"parse_failures"`
}

// Build collects the report from the store
func Build(store *db.DB) (*Report, error) {
	stats, err := store.GetStats()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	unmatched, err := store.Unmatched()
	if err != nil {
		return nil, fmt.Errorf("failed to list unmatched media: %w", err)
	}
	failures, err := store.ParseFailures()
	if err != nil {
		return nil, fmt.Errorf("failed to list parse failures: %w", err)
	}

	r := &Report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Summary: Summary{
			Archives:      stats.Archives,
			MediaFiles:    stats.MediaFiles,
			MediaSize:     utils.FormatSize(stats.MediaSize),
			Sidecars:      stats.MetaFiles,
			ParseFailures: stats.ParseFailures,
			Matched:       stats.Matched,
			Unmatched:     stats.Unmatched,
			Edited:        stats.Edited,
			Exported:      stats.Exported,
			LibraryCopies: stats.LibraryCopies,
		},
		Unmatched:     make([]UnmatchedFile, 0, len(unmatched)),
		ParseFailures: make([]ParseFailure, 0, len(failures)),
	}
	for _, m := range unmatched {
		r.Unmatched = append(r.Unmatched, UnmatchedFile{Path: m.Path, Archive: m.Archive, Size: m.Size})
	}
	for _, m := range failures {
		r.ParseFailures = append(r.ParseFailures, ParseFailure{Path: m.Path, Archive: m.Archive, Reason: m.ParseError})
	}
	return r, nil
}

// WriteYAML encodes the report to w
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
