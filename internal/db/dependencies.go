package db

import (
	"github.com/dori/tasknest/internal/graph"
	"github.com/dori/tasknest/internal/model"
)

// TaskDependencies returns the non-deleted tasks this task depends on
func (db *DB) TaskDependencies(taskID int64) ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN task_dependencies td ON t.id = td.depends_on_id
		WHERE td.task_id = ? AND t.is_deleted = 0
		ORDER BY t.created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// TaskDependents returns the non-deleted tasks that depend on this task
func (db *DB) TaskDependents(taskID int64) ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN task_dependencies td ON t.id = td.task_id
		WHERE td.depends_on_id = ? AND t.is_deleted = 0
		ORDER BY t.created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// AddDependency records a depends-on edge. This is a dumb edge store:
// duplicates are ignored and no cycle check happens here. Callers go
// through the service layer, which consults the graph validator first.
func (db *DB) AddDependency(taskID, dependsOnID int64) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO task_dependencies (task_id, depends_on_id) VALUES (?, ?)
	`, taskID, dependsOnID)
	return err
}

// RemoveDependency removes a depends-on edge
func (db *DB) RemoveDependency(taskID, dependsOnID int64) error {
	_, err := db.Exec(`
		DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_id = ?
	`, taskID, dependsOnID)
	return err
}

// IsTaskBlocked returns true if any dependency is not yet completed
func (db *DB) IsTaskBlocked(taskID int64) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM task_dependencies td
		JOIN tasks t ON td.depends_on_id = t.id
		WHERE td.task_id = ? AND t.is_deleted = 0 AND t.completed = 0
	`, taskID).Scan(&count)
	return count > 0, err
}

// DependencyEdges returns all depends-on edges whose endpoints are both
// non-deleted. Stale edges to trashed tasks are invisible to the
// reachability graph, so they never block new valid edges.
func (db *DB) DependencyEdges() ([]graph.Edge, error) {
	rows, err := db.Query(`
		SELECT td.task_id, td.depends_on_id
		FROM task_dependencies td
		JOIN tasks a ON a.id = td.task_id AND a.is_deleted = 0
		JOIN tasks b ON b.id = td.depends_on_id AND b.is_deleted = 0
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.TaskID, &e.DependsOnID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
