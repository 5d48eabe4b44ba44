package db

import (
	"database/sql"
	"time"
)

// CalculateProgress recomputes a task's progress bottom-up and persists it.
// A leaf is 1.0 when completed and 0.0 otherwise; a non-leaf is the plain
// mean of its non-deleted children, each child weighted equally no matter
// how large its own subtree is.
func (db *DB) CalculateProgress(id int64) (float64, error) {
	// Collect child IDs before recursing: with MaxOpenConns(1) a nested
	// query during rows iteration deadlocks.
	rows, err := db.Query(`SELECT id FROM tasks WHERE parent_id = ? AND is_deleted = 0`, id)
	if err != nil {
		return 0, err
	}
	var children []int64
	for rows.Next() {
		var child int64
		if err := rows.Scan(&child); err != nil {
			rows.Close()
			return 0, err
		}
		children = append(children, child)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var progress float64
	if len(children) == 0 {
		var completed int
		if err := db.QueryRow(`SELECT completed FROM tasks WHERE id = ?`, id).Scan(&completed); err != nil {
			return 0, err
		}
		if completed == 1 {
			progress = 1.0
		}
	} else {
		var sum float64
		for _, child := range children {
			p, err := db.CalculateProgress(child)
			if err != nil {
				return 0, err
			}
			sum += p
		}
		progress = sum / float64(len(children))
	}

	now := time.Now()
	if _, err := db.Exec(`UPDATE tasks SET progress = ?, updated_at = ? WHERE id = ?`, progress, now, id); err != nil {
		return 0, err
	}
	return progress, nil
}

// CalculateParentProgress recomputes id's progress and walks the ancestor
// chain to the root, recomputing each level from its own direct children.
// A single leaf toggle therefore refreshes the whole chain above it.
func (db *DB) CalculateParentProgress(id int64) error {
	cur := id
	for cur != 0 {
		if _, err := db.CalculateProgress(cur); err != nil {
			return err
		}

		var parent int64
		err := db.QueryRow(`SELECT parent_id FROM tasks WHERE id = ?`, cur).Scan(&parent)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		cur = parent
	}
	return nil
}
