package db

import (
	"database/sql"
	"errors"
	"time"
)

// Run statuses
const (
	RunStarted   = "started"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// StartRun records the beginning of a pipeline run
func (db *DB) StartRun(id string, archives int) error {
	_, err := db.Exec(`
		INSERT INTO runs (id, started_at, archives, status) VALUES (?, ?, ?, ?)
	`, id, time.Now().UTC().Format(time.DateTime), archives, RunStarted)
	return err
}

// FinishRun closes a run with its outcome and final match counts
func (db *DB) FinishRun(id, status string, matched, unmatched int64) error {
	return db.update("runs", "id", id, map[string]any{
		"finished_at": time.Now().UTC().Format(time.DateTime),
		"status":      status,
		"matched":     matched,
		"unmatched":   unmatched,
	})
}

// LastRun returns the id and status of the most recent run, or ErrNotFound
func (db *DB) LastRun() (id, status, startedAt string, err error) {
	err = db.QueryRow(`SELECT id, status, started_at FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).
		Scan(&id, &status, &startedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return "", "", "", err
	}
	return id, status, startedAt, nil
}
