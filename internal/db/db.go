package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by point lookups and updates when the key is absent
var ErrNotFound = errors.New("record not found")

// DB represents a database connection
type DB struct {
	*sql.DB
	path string
}

// New opens (creating if needed) the record store at path
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection serializes writes from the push workers
	sqlDB.SetMaxOpenConns(1)

	db := &DB{DB: sqlDB, path: path}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize store %s: %w", path, err)
	}

	return db, nil
}

// Path returns the on-disk location of the store
func (db *DB) Path() string {
	return db.path
}

// initialize creates the necessary tables and views if they don't exist
func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS media_files (
			media_path TEXT PRIMARY KEY,
			archive TEXT NOT NULL,
			filename TEXT NOT NULL,
			size INTEGER NOT NULL,
			ext TEXT,
			edited INTEGER NOT NULL DEFAULT 0,
			metapath TEXT,
			newfolder TEXT,
			lib_add INTEGER,
			source TEXT,
			exported TEXT,
			note TEXT,
			exif TEXT,
			lib_exported TEXT,
			lib_note TEXT,
			lib_exif TEXT
		);
		CREATE TABLE IF NOT EXISTS meta_files (
			meta_path TEXT PRIMARY KEY,
			archive TEXT NOT NULL,
			type TEXT,
			title TEXT,
			description TEXT,
			ts_taken INTEGER,
			tsf_taken TEXT,
			year INTEGER,
			geo_lat REAL,
			geo_long REAL,
			geo_alt REAL,
			image_views INTEGER,
			trashed INTEGER,
			parse_error TEXT
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME,
			finished_at DATETIME,
			archives INTEGER,
			status TEXT,
			matched INTEGER,
			unmatched INTEGER
		);
		CREATE TABLE IF NOT EXISTS pushes (
			local_path TEXT PRIMARY KEY,
			object_key TEXT NOT NULL,
			media_path TEXT,
			size INTEGER,
			ts_taken INTEGER,
			description TEXT,
			push_status TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_media_archive ON media_files(archive);
		CREATE INDEX IF NOT EXISTS idx_media_metapath ON media_files(metapath);
		CREATE INDEX IF NOT EXISTS idx_media_newfolder ON media_files(newfolder);
		CREATE INDEX IF NOT EXISTS idx_meta_archive ON meta_files(archive);
		CREATE INDEX IF NOT EXISTS idx_pushes_status ON pushes(push_status);
		CREATE VIEW IF NOT EXISTS nomatch AS
			SELECT * FROM media_files WHERE metapath IS NULL AND edited != 1;
		CREATE VIEW IF NOT EXISTS matches AS
			SELECT media.*,
				meta.type AS meta_type,
				meta.title AS meta_title,
				meta.description AS meta_description,
				meta.ts_taken, meta.tsf_taken, meta.year,
				meta.geo_lat, meta.geo_long, meta.geo_alt,
				meta.image_views, meta.trashed
			FROM media_files AS media
			LEFT JOIN meta_files AS meta ON media.metapath = meta.meta_path
			WHERE media.metapath IS NOT NULL;
		CREATE VIEW IF NOT EXISTS archives_meta AS
			SELECT archive FROM meta_files GROUP BY archive;
		CREATE VIEW IF NOT EXISTS archives_media AS
			SELECT archive FROM media_files GROUP BY archive;
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA temp_store=MEMORY;
	`)
	return err
}

// update merges fields into the row keyed by key. Table and column names
// are package constants, never user input.
func (db *DB) update(table, keyCol, key string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = col + " = ?"
		args = append(args, fields[col])
	}
	args = append(args, key)

	res, err := db.Exec(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), keyCol), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", table, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, key, ErrNotFound)
	}
	return nil
}

// groupArchives reads one of the per-archive grouping views
func (db *DB) groupArchives(view string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT archive FROM %s ORDER BY archive", view))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var archives []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		archives = append(archives, a)
	}
	return archives, rows.Err()
}

// ArchivesWithMeta lists archives that contributed at least one sidecar
func (db *DB) ArchivesWithMeta() ([]string, error) {
	return db.groupArchives("archives_meta")
}

// ArchivesWithMedia lists archives that contributed at least one media file
func (db *DB) ArchivesWithMedia() ([]string, error) {
	return db.groupArchives("archives_media")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
