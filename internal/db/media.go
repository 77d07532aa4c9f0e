package db

import (
	"database/sql"
	"fmt"

	"github.com/projx/gphotos-export/pkg/models"
)

const mediaColumns = `media_path, archive, filename, size, ext, edited, metapath, newfolder,
	lib_add, source, exported, note, exif, lib_exported, lib_note, lib_exif`

type rowScanner interface {
	Scan(dest ...any) error
}

// mediaRow mirrors the nullable columns of media_files
type mediaRow struct {
	path, archive, filename       string
	size                          int64
	ext                           sql.NullString
	edited                        int
	metapath, newfolder           sql.NullString
	libAdd                        sql.NullInt64
	source, exported, note, exif  sql.NullString
	libExported, libNote, libExif sql.NullString
}

func (r *mediaRow) dest() []any {
	return []any{
		&r.path, &r.archive, &r.filename, &r.size, &r.ext, &r.edited, &r.metapath, &r.newfolder,
		&r.libAdd, &r.source, &r.exported, &r.note, &r.exif, &r.libExported, &r.libNote, &r.libExif,
	}
}

func (r *mediaRow) record() models.MediaRecord {
	m := models.MediaRecord{
		Path:        r.path,
		Archive:     r.archive,
		Filename:    r.filename,
		Size:        r.size,
		Ext:         r.ext.String,
		Edited:      r.edited == 1,
		MetaPath:    r.metapath.String,
		Folder:      r.newfolder.String,
		Source:      r.source.String,
		Exported:    r.exported.String,
		Note:        r.note.String,
		Exif:        r.exif.String,
		LibExported: r.libExported.String,
		LibNote:     r.libNote.String,
		LibExif:     r.libExif.String,
	}
	if r.libAdd.Valid {
		if r.libAdd.Int64 == 1 {
			m.Disposition = models.DispositionAlsoLibrary
		} else {
			m.Disposition = models.DispositionAlbumOnly
		}
	}
	return m
}

func scanMedia(s rowScanner) (models.MediaRecord, error) {
	var r mediaRow
	if err := s.Scan(r.dest()...); err != nil {
		return models.MediaRecord{}, err
	}
	return r.record(), nil
}

func (db *DB) queryMedia(query string, args ...any) ([]models.MediaRecord, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MediaRecord
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// UpsertMediaBatch inserts or refreshes index fields of media records in a
// single transaction. Fields written by later stages are left untouched so
// re-indexing never rolls a record backwards.
func (db *DB) UpsertMediaBatch(records []models.MediaRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO media_files (media_path, archive, filename, size, ext, edited)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_path) DO UPDATE SET
			archive = excluded.archive,
			filename = excluded.filename,
			size = excluded.size,
			ext = excluded.ext
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records {
		_, err = stmt.Exec(
			record.Path,
			record.Archive,
			record.Filename,
			record.Size,
			record.Ext,
			boolToInt(record.Edited),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert media %s: %w", record.Path, err)
		}
	}

	return tx.Commit()
}

// GetMedia retrieves a media record by path
func (db *DB) GetMedia(path string) (*models.MediaRecord, error) {
	row := db.QueryRow(`SELECT `+mediaColumns+` FROM media_files WHERE media_path = ?`, path)
	m, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("media %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// AllMedia returns every media record ordered by path
func (db *DB) AllMedia() ([]models.MediaRecord, error) {
	return db.queryMedia(`SELECT ` + mediaColumns + ` FROM media_files ORDER BY media_path`)
}

// Unmatched returns the nomatch view: media with no sidecar that are not edited variants
func (db *DB) Unmatched() ([]models.MediaRecord, error) {
	return db.queryMedia(`SELECT ` + mediaColumns + ` FROM nomatch ORDER BY media_path`)
}

// MarkEdited flags a media record as an edited variant
func (db *DB) MarkEdited(path string) error {
	return db.update("media_files", "media_path", path, map[string]any{"edited": 1})
}

// SetMatch links a media record to its sidecar
func (db *DB) SetMatch(path, metaPath string) error {
	return db.update("media_files", "media_path", path, map[string]any{"metapath": metaPath})
}

// SetFolder records the destination subfolder of a media record
func (db *DB) SetFolder(path, folder string) error {
	return db.update("media_files", "media_path", path, map[string]any{"newfolder": folder})
}

// SetDisposition records the dedup decision of an album record
func (db *DB) SetDisposition(path string, d models.Disposition, source string) error {
	var libAdd any
	switch d {
	case models.DispositionAlbumOnly:
		libAdd = 0
	case models.DispositionAlsoLibrary:
		libAdd = 1
	}
	return db.update("media_files", "media_path", path, map[string]any{"lib_add": libAdd, "source": source})
}

// SetExport records the outcome of one export target. A result that wrote
// nothing keeps the previously recorded destination.
func (db *DB) SetExport(path string, target models.ExportTarget, res models.ExportResult) error {
	exported, note, exif := "exported", "note", "exif"
	if target == models.TargetLibrary {
		exported, note, exif = "lib_exported", "lib_note", "lib_exif"
	}
	fields := map[string]any{note: res.Note}
	if res.Written {
		fields[exported] = res.Path
		fields[exif] = res.Exif
	}
	return db.update("media_files", "media_path", path, fields)
}
