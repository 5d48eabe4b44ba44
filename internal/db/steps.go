package db

import (
	"database/sql"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// Steps returns a task's checklist entries in manual order
func (db *DB) Steps(taskID int64) ([]model.Step, error) {
	rows, err := db.Query(`
		SELECT id, task_id, title, completed, position, created_at
		FROM task_steps
		WHERE task_id = ?
		ORDER BY position, created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []model.Step
	for rows.Next() {
		var s model.Step
		var completed int
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &completed, &s.Position, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Completed = completed == 1
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// AddStep appends a checklist entry to a task
func (db *DB) AddStep(taskID int64, title string) (*model.Step, error) {
	now := time.Now()

	var maxPos sql.NullInt64
	db.QueryRow(`SELECT MAX(position) FROM task_steps WHERE task_id = ?`, taskID).Scan(&maxPos)
	position := 0
	if maxPos.Valid {
		position = int(maxPos.Int64) + 1
	}

	res, err := db.Exec(`
		INSERT INTO task_steps (task_id, title, position, created_at)
		VALUES (?, ?, ?, ?)
	`, taskID, title, position, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &model.Step{
		ID:        id,
		TaskID:    taskID,
		Title:     title,
		Position:  position,
		CreatedAt: now,
	}, nil
}

// SetStepCompleted flips a checklist entry's completion flag
func (db *DB) SetStepCompleted(id int64, completed bool) error {
	_, err := db.Exec(`UPDATE task_steps SET completed = ? WHERE id = ?`, completed, id)
	return err
}

// DeleteStep removes a checklist entry
func (db *DB) DeleteStep(id int64) error {
	_, err := db.Exec(`DELETE FROM task_steps WHERE id = ?`, id)
	return err
}

// TaskFiles returns a task's attachment paths in order
func (db *DB) TaskFiles(taskID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT path FROM task_files WHERE task_id = ? ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// SetTaskFiles replaces a task's attachment list and refreshes the
// denormalized first-path column
func (db *DB) SetTaskFiles(taskID int64, paths []string) error {
	now := time.Now()
	first := ""
	if len(paths) > 0 {
		first = paths[0]
	}

	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM task_files WHERE task_id = ?`, taskID); err != nil {
			return err
		}
		for i, path := range paths {
			if _, err := tx.Exec(`
				INSERT INTO task_files (task_id, path, position) VALUES (?, ?, ?)
			`, taskID, path, i); err != nil {
				return err
			}
		}
		_, err := tx.Exec(`UPDATE tasks SET file_path = ?, updated_at = ? WHERE id = ?`, first, now, taskID)
		return err
	})
}
