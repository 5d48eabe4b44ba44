package db

import (
	"database/sql"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// Tags returns all tags ordered by name
func (db *DB) Tags() ([]model.Tag, error) {
	rows, err := db.Query(`
		SELECT id, name, color, created_at
		FROM tags
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTags(rows)
}

// Tag returns a single tag by ID
func (db *DB) Tag(id int64) (*model.Tag, error) {
	var t model.Tag
	var color *string

	err := db.QueryRow(`
		SELECT id, name, color, created_at
		FROM tags WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &color, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if color != nil {
		t.Color = *color
	}

	return &t, nil
}

// TagByName returns a tag by its unique name
func (db *DB) TagByName(name string) (*model.Tag, error) {
	var t model.Tag
	var color *string

	err := db.QueryRow(`
		SELECT id, name, color, created_at
		FROM tags WHERE name = ?
	`, name).Scan(&t.ID, &t.Name, &color, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if color != nil {
		t.Color = *color
	}

	return &t, nil
}

// CreateTag creates a new tag
func (db *DB) CreateTag(name, color string) (*model.Tag, error) {
	now := time.Now()

	res, err := db.Exec(`
		INSERT INTO tags (name, color, created_at)
		VALUES (?, ?, ?)
	`, name, color, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &model.Tag{
		ID:        id,
		Name:      name,
		Color:     color,
		CreatedAt: now,
	}, nil
}

// GetOrCreateTag gets a tag by name or creates it if it doesn't exist
func (db *DB) GetOrCreateTag(name, color string) (*model.Tag, error) {
	tag, err := db.TagByName(name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}
	return db.CreateTag(name, color)
}

// UpdateTag updates a tag
func (db *DB) UpdateTag(id int64, name, color string) error {
	_, err := db.Exec(`
		UPDATE tags SET name = ?, color = ? WHERE id = ?
	`, name, color, id)
	return err
}

// DeleteTag deletes a tag and its task associations
func (db *DB) DeleteTag(id int64) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM task_tags WHERE tag_id = ?`, id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
		return err
	})
}

// TaskTags returns tags attached to a task
func (db *DB) TaskTags(taskID int64) ([]model.Tag, error) {
	rows, err := db.Query(`
		SELECT t.id, t.name, t.color, t.created_at
		FROM tags t
		JOIN task_tags tt ON t.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY t.name
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTags(rows)
}

// AddTagToTask attaches a tag to a task; duplicates are ignored
func (db *DB) AddTagToTask(taskID, tagID int64) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)
	`, taskID, tagID)
	return err
}

// RemoveTagFromTask removes a tag from a task
func (db *DB) RemoveTagFromTask(taskID, tagID int64) error {
	_, err := db.Exec(`
		DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?
	`, taskID, tagID)
	return err
}

// SetTaskTags replaces all tags on a task
func (db *DB) SetTaskTags(taskID int64, tagIDs []int64) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM task_tags WHERE task_id = ?`, taskID)
		if err != nil {
			return err
		}

		for _, tagID := range tagIDs {
			_, err = tx.Exec(`INSERT INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		var color *string
		if err := rows.Scan(&t.ID, &t.Name, &color, &t.CreatedAt); err != nil {
			return nil, err
		}
		if color != nil {
			t.Color = *color
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
