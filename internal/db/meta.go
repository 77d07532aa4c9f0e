package db

import (
	"database/sql"
	"fmt"

	"github.com/projx/gphotos-export/pkg/models"
)

const metaColumns = `meta_path, archive, type, title, description, ts_taken, tsf_taken, year,
	geo_lat, geo_long, geo_alt, image_views, trashed, parse_error`

type metaRow struct {
	path, archive           string
	typ, title, description sql.NullString
	tsTaken                 sql.NullInt64
	tsfTaken                sql.NullString
	year                    sql.NullInt64
	geoLat, geoLong, geoAlt sql.NullFloat64
	imageViews, trashed     sql.NullInt64
	parseError              sql.NullString
}

func (r *metaRow) dest() []any {
	return []any{
		&r.path, &r.archive, &r.typ, &r.title, &r.description, &r.tsTaken, &r.tsfTaken, &r.year,
		&r.geoLat, &r.geoLong, &r.geoAlt, &r.imageViews, &r.trashed, &r.parseError,
	}
}

func (r *metaRow) record() models.MetaRecord {
	return models.MetaRecord{
		Path:           r.path,
		Archive:        r.archive,
		Type:           models.MetaType(r.typ.String),
		Title:          r.title.String,
		Description:    r.description.String,
		TakenAt:        r.tsTaken.Int64,
		TakenFormatted: r.tsfTaken.String,
		Year:           int(r.year.Int64),
		GeoLat:         r.geoLat.Float64,
		GeoLong:        r.geoLong.Float64,
		GeoAlt:         r.geoAlt.Float64,
		ImageViews:     r.imageViews.Int64,
		Trashed:        r.trashed.Int64 == 1,
		ParseError:     r.parseError.String,
	}
}

func (db *DB) queryMeta(query string, args ...any) ([]models.MetaRecord, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MetaRecord
	for rows.Next() {
		var r metaRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		records = append(records, r.record())
	}
	return records, rows.Err()
}

// UpsertMetaStubs registers sidecar paths in a single transaction
func (db *DB) UpsertMetaStubs(records []models.MetaRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO meta_files (meta_path, archive) VALUES (?, ?)
		ON CONFLICT(meta_path) DO UPDATE SET archive = excluded.archive
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		if _, err = stmt.Exec(record.Path, record.Archive); err != nil {
			return fmt.Errorf("failed to upsert sidecar %s: %w", record.Path, err)
		}
	}

	return tx.Commit()
}

// GetMeta retrieves a sidecar record, failing with ErrNotFound when absent
func (db *DB) GetMeta(path string) (*models.MetaRecord, error) {
	var r metaRow
	err := db.QueryRow(`SELECT `+metaColumns+` FROM meta_files WHERE meta_path = ?`, path).Scan(r.dest()...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sidecar %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	m := r.record()
	return &m, nil
}

// MetaExists reports whether a sidecar path is registered
func (db *DB) MetaExists(path string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM meta_files WHERE meta_path = ?`, path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MetaByArchive returns every sidecar registered for an archive
func (db *DB) MetaByArchive(archive string) ([]models.MetaRecord, error) {
	return db.queryMeta(`SELECT `+metaColumns+` FROM meta_files WHERE archive = ? ORDER BY meta_path`, archive)
}

// ParseFailures returns sidecars whose payload could not be extracted
func (db *DB) ParseFailures() ([]models.MetaRecord, error) {
	return db.queryMeta(`SELECT ` + metaColumns + ` FROM meta_files WHERE parse_error IS NOT NULL ORDER BY meta_path`)
}

// SetAlbumFields populates an album sidecar
func (db *DB) SetAlbumFields(path string, f models.AlbumFields) error {
	return db.update("meta_files", "meta_path", path, map[string]any{
		"type":        string(models.MetaTypeAlbum),
		"title":       f.Title,
		"description": f.Description,
		"parse_error": nil,
	})
}

// SetMediaFields populates a media sidecar
func (db *DB) SetMediaFields(path string, f models.MediaFields) error {
	return db.update("meta_files", "meta_path", path, map[string]any{
		"type":        string(models.MetaTypeMedia),
		"title":       f.Title,
		"description": f.Description,
		"ts_taken":    f.TakenAt,
		"tsf_taken":   f.TakenFormatted,
		"year":        f.Year,
		"geo_lat":     f.GeoLat,
		"geo_long":    f.GeoLong,
		"geo_alt":     f.GeoAlt,
		"image_views": f.ImageViews,
		"trashed":     boolToInt(f.Trashed),
		"parse_error": nil,
	})
}

// SetParseError records why a sidecar could not be extracted. The stub's
// other fields are left as they are.
func (db *DB) SetParseError(path, reason string) error {
	return db.update("meta_files", "meta_path", path, map[string]any{"parse_error": reason})
}
