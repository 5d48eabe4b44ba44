package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// SortOrder selects how search results are ordered
type SortOrder int

const (
	SortCreated SortOrder = iota
	SortDue
	SortPriority
	SortTitle
)

// DateBucket is a coarse due-date filter
type DateBucket int

const (
	DateAny DateBucket = iota
	DateOverdue
	DateToday
	DateThisWeek
)

// Filter describes a task search: free text served by the FTS shadow
// table plus structured column filters
type Filter struct {
	Text      string
	Priority  model.Priority // 0 = any
	Completed *bool          // nil = any
	Due       DateBucket
	TagIDs    []int64 // task must carry every listed tag
	Sort      SortOrder
}

// SearchTasks returns non-deleted tasks matching the filter
func (db *DB) SearchTasks(f Filter) ([]model.Task, error) {
	var conds []string
	var args []interface{}

	conds = append(conds, "t.is_deleted = 0")

	if text := strings.TrimSpace(f.Text); text != "" {
		conds = append(conds, "t.id IN (SELECT rowid FROM tasks_fts WHERE tasks_fts MATCH ?)")
		args = append(args, ftsQuery(text))
	}
	if f.Priority != 0 {
		conds = append(conds, "t.priority = ?")
		args = append(args, f.Priority)
	}
	if f.Completed != nil {
		conds = append(conds, "t.completed = ?")
		args = append(args, *f.Completed)
	}

	now := time.Now()
	switch f.Due {
	case DateOverdue:
		conds = append(conds, "t.due_date IS NOT NULL AND t.due_date < ?")
		args = append(args, now)
	case DateToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		conds = append(conds, "t.due_date IS NOT NULL AND t.due_date >= ? AND t.due_date < ?")
		args = append(args, start, start.AddDate(0, 0, 1))
	case DateThisWeek:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		conds = append(conds, "t.due_date IS NOT NULL AND t.due_date >= ? AND t.due_date < ?")
		args = append(args, start, start.AddDate(0, 0, 7))
	}

	if len(f.TagIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.TagIDs)), ",")
		conds = append(conds, fmt.Sprintf(`t.id IN (
			SELECT task_id FROM task_tags WHERE tag_id IN (%s)
			GROUP BY task_id HAVING COUNT(DISTINCT tag_id) = %d
		)`, placeholders, len(f.TagIDs)))
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}

	var order string
	switch f.Sort {
	case SortDue:
		order = "t.due_date IS NULL, t.due_date ASC"
	case SortPriority:
		order = "t.priority DESC, t.created_at DESC"
	case SortTitle:
		order = "t.title COLLATE NOCASE ASC"
	default:
		order = "t.created_at DESC"
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks t
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY ` + order

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.scanTasks(rows)
}

// ftsQuery turns free text into an FTS5 prefix query, quoting each term
// so user input cannot inject match syntax
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"*`
	}
	return strings.Join(terms, " ")
}
