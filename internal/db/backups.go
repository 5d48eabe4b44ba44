package db

import (
	"time"

	"github.com/dori/tasknest/internal/model"
)

// AddBackupRecord stores one backup run in backup_history
func (db *DB) AddBackupRecord(r model.BackupRecord) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO backup_history (id, path, size, status, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Path, r.Size, r.Status, r.Message, created)
	return err
}

// BackupHistory returns the most recent backup runs, newest first
func (db *DB) BackupHistory(limit int) ([]model.BackupRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, path, size, status, message, created_at
		FROM backup_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BackupRecord
	for rows.Next() {
		var r model.BackupRecord
		if err := rows.Scan(&r.ID, &r.Path, &r.Size, &r.Status, &r.Message, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
