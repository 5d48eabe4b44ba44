package db

import (
	"database/sql"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// Folders returns all folders in manual order
func (db *DB) Folders() ([]model.Folder, error) {
	rows, err := db.Query(`
		SELECT f.id, f.name, f.color, f.position, f.created_at, f.updated_at,
		       (SELECT COUNT(*) FROM task_folders tf
		        JOIN tasks t ON t.id = tf.task_id
		        WHERE tf.folder_id = f.id AND t.is_deleted = 0) AS task_count
		FROM folders f
		ORDER BY f.position, f.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		var f model.Folder
		var color *string
		err := rows.Scan(&f.ID, &f.Name, &color, &f.Position, &f.CreatedAt, &f.UpdatedAt, &f.TaskCount)
		if err != nil {
			return nil, err
		}
		if color != nil {
			f.Color = *color
		}
		folders = append(folders, f)
	}

	return folders, rows.Err()
}

// Folder returns a single folder by ID
func (db *DB) Folder(id int64) (*model.Folder, error) {
	var f model.Folder
	var color *string

	err := db.QueryRow(`
		SELECT id, name, color, position, created_at, updated_at
		FROM folders WHERE id = ?
	`, id).Scan(&f.ID, &f.Name, &color, &f.Position, &f.CreatedAt, &f.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if color != nil {
		f.Color = *color
	}

	return &f, nil
}

// CreateFolder creates a new folder at the end of the manual order
func (db *DB) CreateFolder(name, color string) (*model.Folder, error) {
	now := time.Now()

	var maxPos sql.NullInt64
	db.QueryRow("SELECT MAX(position) FROM folders").Scan(&maxPos)
	position := 0
	if maxPos.Valid {
		position = int(maxPos.Int64) + 1
	}

	res, err := db.Exec(`
		INSERT INTO folders (name, color, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, name, color, position, now, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &model.Folder{
		ID:        id,
		Name:      name,
		Color:     color,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateFolder updates a folder's name and color
func (db *DB) UpdateFolder(id int64, name, color string) error {
	now := time.Now()
	_, err := db.Exec(`
		UPDATE folders SET name = ?, color = ?, updated_at = ? WHERE id = ?
	`, name, color, now, id)
	return err
}

// MoveFolder changes a folder's position in the manual order
func (db *DB) MoveFolder(id int64, position int) error {
	now := time.Now()
	_, err := db.Exec(`
		UPDATE folders SET position = ?, updated_at = ? WHERE id = ?
	`, position, now, id)
	return err
}

// DeleteFolder deletes a folder and its task associations
func (db *DB) DeleteFolder(id int64) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM task_folders WHERE folder_id = ?`, id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`DELETE FROM folders WHERE id = ?`, id)
		return err
	})
}

// FolderTasks returns non-deleted tasks in a folder, newest first
func (db *DB) FolderTasks(folderID int64) ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN task_folders tf ON t.id = tf.task_id
		WHERE tf.folder_id = ? AND t.is_deleted = 0
		ORDER BY t.created_at DESC
	`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// TaskFolders returns folders a task belongs to
func (db *DB) TaskFolders(taskID int64) ([]model.Folder, error) {
	rows, err := db.Query(`
		SELECT f.id, f.name, f.color, f.position, f.created_at, f.updated_at
		FROM folders f
		JOIN task_folders tf ON f.id = tf.folder_id
		WHERE tf.task_id = ?
		ORDER BY f.position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []model.Folder
	for rows.Next() {
		var f model.Folder
		var color *string
		if err := rows.Scan(&f.ID, &f.Name, &color, &f.Position, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		if color != nil {
			f.Color = *color
		}
		folders = append(folders, f)
	}

	return folders, rows.Err()
}

// AddTaskToFolder links a task to a folder; duplicates are ignored
func (db *DB) AddTaskToFolder(taskID, folderID int64) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO task_folders (task_id, folder_id) VALUES (?, ?)
	`, taskID, folderID)
	return err
}

// RemoveTaskFromFolder unlinks a task from a folder
func (db *DB) RemoveTaskFromFolder(taskID, folderID int64) error {
	_, err := db.Exec(`
		DELETE FROM task_folders WHERE task_id = ? AND folder_id = ?
	`, taskID, folderID)
	return err
}
