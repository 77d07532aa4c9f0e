package db

import (
	"database/sql"
	"strings"

	"github.com/projx/gphotos-export/pkg/models"
)

// MatchFilter narrows the matches view
type MatchFilter struct {
	Archive      string
	FolderPrefix string // e.g. "Library/"
	Classified   bool   // only records with a destination folder
}

// Matches returns media records joined with their sidecars
func (db *DB) Matches(f MatchFilter) ([]models.Match, error) {
	var where []string
	var args []any
	if f.Archive != "" {
		where = append(where, "archive = ?")
		args = append(args, f.Archive)
	}
	if f.FolderPrefix != "" {
		where = append(where, "substr(newfolder, 1, length(?)) = ?")
		args = append(args, f.FolderPrefix, f.FolderPrefix)
	}
	if f.Classified {
		where = append(where, "newfolder IS NOT NULL")
	}

	query := `SELECT ` + mediaColumns + `, meta_type, meta_title, meta_description, ts_taken, tsf_taken,
		year, geo_lat, geo_long, geo_alt, image_views, trashed FROM matches`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY media_path"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m mediaRow
		var meta metaRow
		dest := append(m.dest(),
			&meta.typ, &meta.title, &meta.description, &meta.tsTaken, &meta.tsfTaken,
			&meta.year, &meta.geoLat, &meta.geoLong, &meta.geoAlt, &meta.imageViews, &meta.trashed,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		media := m.record()
		meta.path = media.MetaPath
		meta.archive = media.Archive
		matches = append(matches, models.Match{Media: media, Meta: meta.record()})
	}
	return matches, rows.Err()
}

// GetStats returns counts over the whole store
func (db *DB) GetStats() (*models.Stats, error) {
	var stats models.Stats
	err := db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(size), 0),
			COUNT(CASE WHEN metapath IS NOT NULL THEN 1 END),
			COALESCE(SUM(CASE WHEN metapath IS NOT NULL THEN size ELSE 0 END), 0),
			COUNT(CASE WHEN metapath IS NULL AND edited != 1 THEN 1 END),
			COUNT(CASE WHEN edited = 1 THEN 1 END),
			COUNT(CASE WHEN exported IS NOT NULL THEN 1 END),
			COUNT(CASE WHEN lib_exported IS NOT NULL THEN 1 END),
			COUNT(DISTINCT archive)
		FROM media_files
	`).Scan(
		&stats.MediaFiles,
		&stats.MediaSize,
		&stats.Matched,
		&stats.MatchedSize,
		&stats.Unmatched,
		&stats.Edited,
		&stats.Exported,
		&stats.LibraryCopies,
		&stats.Archives,
	)
	if err != nil {
		return nil, err
	}

	err = db.QueryRow(`
		SELECT COUNT(*), COUNT(CASE WHEN parse_error IS NOT NULL THEN 1 END) FROM meta_files
	`).Scan(&stats.MetaFiles, &stats.ParseFailures)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return &stats, nil
}
