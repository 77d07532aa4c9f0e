package db

import (
	"fmt"

	"github.com/projx/gphotos-export/pkg/models"
)

// ExportedFiles lists every file the exporter wrote, primary and library
// copies alike, with the sidecar fields a push attaches as object metadata.
func (db *DB) ExportedFiles() ([]models.PushRecord, error) {
	rows, err := db.Query(`
		SELECT exported, media_path, size, COALESCE(ts_taken, 0), COALESCE(meta_description, '')
		FROM matches WHERE exported IS NOT NULL
		UNION ALL
		SELECT lib_exported, media_path, size, COALESCE(ts_taken, 0), COALESCE(meta_description, '')
		FROM matches WHERE lib_exported IS NOT NULL
		ORDER BY 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.PushRecord
	for rows.Next() {
		var f models.PushRecord
		if err := rows.Scan(&f.LocalPath, &f.MediaPath, &f.Size, &f.TakenAt, &f.Description); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// QueuePushes registers files for upload. Files already queued keep their status.
func (db *DB) QueuePushes(records []models.PushRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO pushes (local_path, object_key, media_path, size, ts_taken, description, push_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err = stmt.Exec(r.LocalPath, r.ObjectKey, r.MediaPath, r.Size, r.TakenAt, r.Description, models.PushPending)
		if err != nil {
			return fmt.Errorf("failed to queue %s: %w", r.LocalPath, err)
		}
	}

	return tx.Commit()
}

// GetPendingPushes retrieves files still to upload, failed ones included
func (db *DB) GetPendingPushes() ([]models.PushRecord, error) {
	rows, err := db.Query(`
		SELECT local_path, object_key, COALESCE(media_path, ''), size, COALESCE(ts_taken, 0),
			COALESCE(description, ''), push_status
		FROM pushes
		WHERE push_status IN (?, ?)
		ORDER BY size DESC
	`, models.PushPending, models.PushFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.PushRecord
	for rows.Next() {
		var f models.PushRecord
		err = rows.Scan(&f.LocalPath, &f.ObjectKey, &f.MediaPath, &f.Size, &f.TakenAt, &f.Description, &f.Status)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdatePushStatus updates the status of a queued file
func (db *DB) UpdatePushStatus(localPath, status string) error {
	return db.update("pushes", "local_path", localPath, map[string]any{"push_status": status})
}

// PushCounts returns the number of queued files per status
func (db *DB) PushCounts() (map[string]int64, error) {
	rows, err := db.Query(`SELECT push_status, COUNT(*) FROM pushes GROUP BY push_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
