package db

import (
	"database/sql"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// taskColumns is the shared select list for task queries. has_children is
// computed per query so callers always see a fresh projection.
const taskColumns = `t.id, t.title, t.description, t.priority, t.due_date,
	t.completed, t.progress, t.parent_id, t.file_path, t.is_deleted,
	t.deleted_at, t.created_at, t.updated_at,
	EXISTS(SELECT 1 FROM tasks c WHERE c.parent_id = t.id AND c.is_deleted = 0) AS has_children`

// Tasks returns all non-deleted tasks, newest first
func (db *DB) Tasks() ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.is_deleted = 0
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// TasksByParent returns direct non-deleted children of parentID, oldest
// first so step-like children keep their creation sequence
func (db *DB) TasksByParent(parentID int64) ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.parent_id = ? AND t.is_deleted = 0
		ORDER BY t.created_at ASC
	`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// TaskHierarchy returns every non-deleted descendant of rootID (the whole
// forest when rootID is 0), breadth-first. Rows are ordered by (level,
// created_at) so a caller can rebuild the tree in a single linear pass.
func (db *DB) TaskHierarchy(rootID int64) ([]model.Task, error) {
	rows, err := db.Query(`
		WITH RECURSIVE tree(id, level) AS (
			SELECT id, 1 FROM tasks WHERE parent_id = ? AND is_deleted = 0
			UNION ALL
			SELECT t.id, tree.level + 1
			FROM tasks t
			JOIN tree ON t.parent_id = tree.id
			WHERE t.is_deleted = 0
		)
		SELECT `+taskColumns+`, tree.level
		FROM tasks t
		JOIN tree ON tree.id = t.id
		ORDER BY tree.level, t.created_at
	`, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTaskLevel(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Task returns a single non-deleted task by ID, or nil when absent
func (db *DB) Task(id int64) (*model.Task, error) {
	row := db.QueryRow(`
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.id = ? AND t.is_deleted = 0
	`, id)

	t, err := scanTaskRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// TaskAny returns a task by ID regardless of its deletion flag. Used by
// recycle-bin views and by restore/purge, which act on deleted rows.
func (db *DB) TaskAny(id int64) (*model.Task, error) {
	row := db.QueryRow(`
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.id = ?
	`, id)

	t, err := scanTaskRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// DeletedTasks returns all soft-deleted tasks, most recently deleted first
func (db *DB) DeletedTasks() ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		WHERE t.is_deleted = 1
		ORDER BY t.deleted_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// InsertTask creates a task, assigns its ID and stamps its timestamps.
// The first attachment path is denormalized into tasks.file_path; the full
// list goes to task_files.
func (db *DB) InsertTask(t *model.Task) error {
	now := time.Now()
	filePath := ""
	if len(t.Files) > 0 {
		filePath = t.Files[0]
	}

	return db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO tasks (title, description, priority, due_date, completed,
				progress, parent_id, file_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.Title, t.Description, t.Priority, t.DueDate, t.Completed,
			t.Progress, t.ParentID, filePath, now, now)
		if err != nil {
			return err
		}

		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for i, path := range t.Files {
			if _, err := tx.Exec(`
				INSERT INTO task_files (task_id, path, position) VALUES (?, ?, ?)
			`, id, path, i); err != nil {
				return err
			}
		}

		t.ID = id
		t.FilePath = filePath
		t.CreatedAt = now
		t.UpdatedAt = now
		return nil
	})
}

// UpdateTask rewrites all mutable fields and stamps updated_at. It never
// touches is_deleted/deleted_at; those belong to delete/restore/purge.
func (db *DB) UpdateTask(t *model.Task) error {
	now := time.Now()
	_, err := db.Exec(`
		UPDATE tasks SET title = ?, description = ?, priority = ?, due_date = ?,
			completed = ?, progress = ?, parent_id = ?, file_path = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, t.Priority, t.DueDate, t.Completed,
		t.Progress, t.ParentID, t.FilePath, now, t.ID)
	if err == nil {
		t.UpdatedAt = now
	}
	return err
}

// SetTaskCompleted flips the leaf completion flag
func (db *DB) SetTaskCompleted(id int64, completed bool) error {
	now := time.Now()
	_, err := db.Exec(`
		UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?
	`, completed, now, id)
	return err
}

// DeleteTask soft-deletes a task. What happens to its children is decided
// by the delete_parent_action setting, read once per call: promote makes
// them siblings of the deleted task, cascade soft-deletes the whole
// subtree, anything else orphans them to root.
func (db *DB) DeleteTask(id int64) error {
	action := db.SettingInt(SettingDeleteParentAction, ParentActionPromote)
	now := time.Now()

	return db.Transaction(func(tx *sql.Tx) error {
		switch action {
		case ParentActionCascade:
			// Explicit work stack, not recursion: subtree depth is unbounded
			stack := []int64{id}
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				children, err := childIDs(tx, cur, false)
				if err != nil {
					return err
				}
				stack = append(stack, children...)

				if err := softDelete(tx, cur, now); err != nil {
					return err
				}
			}
			return nil

		case ParentActionPromote:
			var parentID int64
			if err := tx.QueryRow(`SELECT parent_id FROM tasks WHERE id = ?`, id).Scan(&parentID); err != nil {
				return err
			}
			if _, err := tx.Exec(`
				UPDATE tasks SET parent_id = ?, updated_at = ? WHERE parent_id = ? AND is_deleted = 0
			`, parentID, now, id); err != nil {
				return err
			}
			return softDelete(tx, id, now)

		default:
			if _, err := tx.Exec(`
				UPDATE tasks SET parent_id = 0, updated_at = ? WHERE parent_id = ? AND is_deleted = 0
			`, now, id); err != nil {
				return err
			}
			return softDelete(tx, id, now)
		}
	})
}

// RestoreTask brings a soft-deleted task back. If its original parent is
// gone or still deleted it is re-linked to root rather than resurrected
// into an invisible subtree. Deleted children are restored transitively
// with the same rule.
func (db *DB) RestoreTask(id int64) error {
	now := time.Now()
	return db.Transaction(func(tx *sql.Tx) error {
		stack := []int64{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			var parentID int64
			if err := tx.QueryRow(`SELECT parent_id FROM tasks WHERE id = ?`, cur).Scan(&parentID); err != nil {
				return err
			}

			newParent := parentID
			if parentID != 0 {
				var parentDeleted int
				err := tx.QueryRow(`SELECT is_deleted FROM tasks WHERE id = ?`, parentID).Scan(&parentDeleted)
				if err == sql.ErrNoRows || (err == nil && parentDeleted == 1) {
					newParent = 0
				} else if err != nil {
					return err
				}
			}

			if _, err := tx.Exec(`
				UPDATE tasks SET is_deleted = 0, deleted_at = NULL, parent_id = ?, updated_at = ?
				WHERE id = ?
			`, newParent, now, cur); err != nil {
				return err
			}

			children, err := childIDs(tx, cur, true)
			if err != nil {
				return err
			}
			stack = append(stack, children...)
		}
		return nil
	})
}

// PurgeTask hard-deletes a task row and every association row referencing
// it. parentAction overrides the delete_parent_action setting; pass -1 to
// use the stored policy.
func (db *DB) PurgeTask(id int64, parentAction int) error {
	if parentAction < 0 {
		parentAction = db.SettingInt(SettingDeleteParentAction, ParentActionPromote)
	}

	return db.Transaction(func(tx *sql.Tx) error {
		return purgeTask(tx, id, parentAction)
	})
}

func purgeTask(tx *sql.Tx, id int64, parentAction int) error {
	switch parentAction {
	case ParentActionCascade:
		// Children go first so every row gets its own association cleanup
		rows, err := tx.Query(`SELECT id FROM tasks WHERE parent_id = ?`, id)
		if err != nil {
			return err
		}
		var children []int64
		for rows.Next() {
			var child int64
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return err
			}
			children = append(children, child)
		}
		rows.Close()
		for _, child := range children {
			if err := purgeTask(tx, child, parentAction); err != nil {
				return err
			}
		}

	case ParentActionPromote:
		var parentID int64
		if err := tx.QueryRow(`SELECT parent_id FROM tasks WHERE id = ?`, id).Scan(&parentID); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return err
		}
		if _, err := tx.Exec(`UPDATE tasks SET parent_id = ? WHERE parent_id = ?`, parentID, id); err != nil {
			return err
		}

	default:
		if _, err := tx.Exec(`UPDATE tasks SET parent_id = 0 WHERE parent_id = ?`, id); err != nil {
			return err
		}
	}

	assocs := []string{
		`DELETE FROM task_steps WHERE task_id = ?`,
		`DELETE FROM task_tags WHERE task_id = ?`,
		`DELETE FROM task_files WHERE task_id = ?`,
		`DELETE FROM task_folders WHERE task_id = ?`,
		`DELETE FROM notifications WHERE task_id = ?`,
	}
	for _, q := range assocs {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_id = ?`, id, id); err != nil {
		return err
	}

	_, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// CleanupDeletedTasks permanently removes soft-deleted tasks whose
// deleted_at is older than days. Returns the number of swept rows.
// No-op for days <= 0.
func (db *DB) CleanupDeletedTasks(days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	rows, err := db.Query(`
		SELECT id FROM tasks WHERE is_deleted = 1 AND deleted_at <= ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		// A cascade purge earlier in the sweep may already have taken
		// this row with it.
		t, err := db.TaskAny(id)
		if err != nil {
			return 0, err
		}
		if t == nil {
			continue
		}
		if err := db.PurgeTask(id, -1); err != nil {
			return 0, err
		}
	}

	return len(ids), nil
}

// Helper functions

func softDelete(tx *sql.Tx, id int64, now time.Time) error {
	_, err := tx.Exec(`
		UPDATE tasks SET is_deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ?
	`, now, now, id)
	return err
}

// childIDs returns direct children of id within the transaction, filtered
// by deletion flag
func childIDs(tx *sql.Tx, id int64, deleted bool) ([]int64, error) {
	flag := 0
	if deleted {
		flag = 1
	}
	rows, err := tx.Query(`SELECT id FROM tasks WHERE parent_id = ? AND is_deleted = ?`, id, flag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var child int64
		if err := rows.Scan(&child); err != nil {
			return nil, err
		}
		ids = append(ids, child)
	}
	return ids, rows.Err()
}

func (db *DB) scanTasks(rows *sql.Rows) ([]model.Task, error) {
	var tasks []model.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskRow(s scanner) (*model.Task, error) {
	var t model.Task
	var dueDate, deletedAt sql.NullTime
	var completed, isDeleted, hasChildren int

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &dueDate,
		&completed, &t.Progress, &t.ParentID, &t.FilePath, &isDeleted,
		&deletedAt, &t.CreatedAt, &t.UpdatedAt, &hasChildren,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed == 1
	t.IsDeleted = isDeleted == 1
	t.HasChildren = hasChildren == 1
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if deletedAt.Valid {
		d := deletedAt.Time
		t.DeletedAt = &d
	}

	return &t, nil
}

func scanTaskLevel(s scanner) (*model.Task, error) {
	var t model.Task
	var dueDate, deletedAt sql.NullTime
	var completed, isDeleted, hasChildren int

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &dueDate,
		&completed, &t.Progress, &t.ParentID, &t.FilePath, &isDeleted,
		&deletedAt, &t.CreatedAt, &t.UpdatedAt, &hasChildren, &t.Level,
	)
	if err != nil {
		return nil, err
	}

	t.Completed = completed == 1
	t.IsDeleted = isDeleted == 1
	t.HasChildren = hasChildren == 1
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	if deletedAt.Valid {
		d := deletedAt.Time
		t.DeletedAt = &d
	}

	return &t, nil
}
